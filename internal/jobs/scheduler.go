package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/redpen/internal/batch"
	"github.com/jackzampolin/redpen/internal/metrics"
	"github.com/jackzampolin/redpen/internal/prompts/copyedit"
	"github.com/jackzampolin/redpen/internal/providers"
	"github.com/jackzampolin/redpen/internal/store"
	"github.com/jackzampolin/redpen/internal/types"
)

// Scheduler runs one editing pass over a project's batches.
// A Scheduler is single use: once stopped or completed it cannot be restarted.
type Scheduler struct {
	projectID string
	gen       providers.Generator
	store     store.Store
	sink      Sink
	limiter   *providers.RateLimiter
	recorder  *metrics.Recorder
	logger    *slog.Logger
	retry     RetryConfig

	systemPrompt string
	promptHash   string
	style        string
	model        string
	temperature  float64
	maxTokens    int
	contextLines int
	chapters     []*types.Chapter

	// emitMu serializes event delivery. Lock order: emitMu before mu.
	emitMu sync.Mutex

	mu          sync.Mutex
	cond        *sync.Cond
	state       RunState
	pausing     bool
	runID       string
	queue       *BatchQueue
	workerCount int
	active      int
	total       int
	completed   int
	failed      int
	cancelled   int
	startedAt   time.Time
	finishedAt  time.Time
	stop        context.CancelFunc
	done        chan struct{}
}

// SchedulerConfig configures a new scheduler.
type SchedulerConfig struct {
	ProjectID string
	Generator providers.Generator // required
	Store     store.Store         // default: in-memory store
	Sink      Sink                // default: LogSink
	Limiter   *providers.RateLimiter
	Recorder  *metrics.Recorder
	Logger    *slog.Logger
	Retry     RetryConfig

	// SystemPrompt defaults to the moderate copy-editing prompt.
	SystemPrompt string
	PromptHash   string
	Style        string
	Model        string
	Temperature  float64
	MaxTokens    int

	// ContextLines > 0 shows that many lines of the chapters around each
	// batch to the backend. Chapters is the project's full ordered chapter list.
	ContextLines int
	Chapters     []*types.Chapter
}

// NewScheduler creates an idle scheduler.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("scheduler requires a generator")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st := cfg.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = LogSink{Logger: logger}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = providers.NewRateLimiter(0)
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = copyedit.SystemPrompt(copyedit.DefaultStyle)
	}

	s := &Scheduler{
		projectID:    cfg.ProjectID,
		gen:          cfg.Generator,
		store:        st,
		sink:         sink,
		limiter:      limiter,
		recorder:     recorder,
		logger:       logger.With("project", cfg.ProjectID),
		retry:        cfg.Retry.withDefaults(),
		systemPrompt: systemPrompt,
		promptHash:   cfg.PromptHash,
		style:        cfg.Style,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		contextLines: cfg.ContextLines,
		chapters:     cfg.Chapters,
		state:        StateIdle,
		queue:        NewBatchQueue(),
	}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// ProjectID returns the project this scheduler edits.
func (s *Scheduler) ProjectID() string {
	return s.projectID
}

// Start queues batches and spawns workerCount workers. Valid only from idle.
//
// Cancelling ctx stops the run. Calls already in flight at that point are
// cancelled too; Stop, by contrast, lets an in-flight backend call finish.
func (s *Scheduler) Start(ctx context.Context, batches []*batch.Batch, workerCount int) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.state != StateIdle {
		from := s.state
		s.mu.Unlock()
		return transitionError(from, StateProcessing)
	}
	if workerCount < 1 || workerCount > MaxWorkers {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidWorkerCount, workerCount, MaxWorkers)
	}

	var queued []*batch.Batch
	for _, b := range batches {
		if b == nil || len(b.Chapters) == 0 {
			continue
		}
		if err := s.queue.Push(b); err != nil {
			s.mu.Unlock()
			return err
		}
		queued = append(queued, b)
		s.total += len(b.Chapters)
	}

	stopCtx, stop := context.WithCancel(ctx)
	s.runID = uuid.NewString()
	s.state = StateProcessing
	s.workerCount = workerCount
	s.startedAt = time.Now()
	s.stop = stop
	s.done = make(chan struct{})
	s.mu.Unlock()

	metrics.QueueDepth.WithLabelValues(s.projectID).Set(float64(len(queued)))
	s.logger.Info("run started", "run_id", s.runID, "batches", len(queued), "chapters", s.total, "workers", workerCount)

	for _, b := range queued {
		for _, ch := range b.Chapters {
			s.setStatus(ctx, ch, types.StatusQueued, "")
		}
	}
	s.emitLocked(Event{Kind: EventStateChanged, State: StateProcessing})

	var g errgroup.Group
	for i := 1; i <= workerCount; i++ {
		id := i
		g.Go(func() error {
			s.workerLoop(ctx, stopCtx, id)
			return nil
		})
	}

	go func() {
		g.Wait()
		s.finish(ctx)
	}()

	// Parent cancellation is treated as Stop.
	done := s.done
	go func() {
		select {
		case <-ctx.Done():
			if err := s.Stop(); err == nil {
				s.logger.Info("run stopped by context cancellation", "run_id", s.runID)
			}
		case <-done:
		}
	}()

	return nil
}

// Pause lets in-flight batches finish without starting new ones. The state
// becomes paused once no worker is active. Valid only from processing.
func (s *Scheduler) Pause() error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.state != StateProcessing {
		from := s.state
		s.mu.Unlock()
		return transitionError(from, StatePaused)
	}
	if s.pausing {
		s.mu.Unlock()
		return nil
	}
	paused := s.active == 0
	if paused {
		s.state = StatePaused
	} else {
		s.pausing = true
	}
	active := s.active
	s.mu.Unlock()

	s.logger.Info("pause requested", "run_id", s.runID, "active_workers", active)
	if paused {
		s.emitLocked(Event{Kind: EventStateChanged, State: StatePaused})
	}
	return nil
}

// Resume lets workers pull from the queue again. Valid only from paused.
func (s *Scheduler) Resume() error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.state != StatePaused {
		from := s.state
		s.mu.Unlock()
		return transitionError(from, StateProcessing)
	}
	s.state = StateProcessing
	s.cond.Broadcast()
	s.mu.Unlock()

	s.logger.Info("run resumed", "run_id", s.runID)
	s.emitLocked(Event{Kind: EventStateChanged, State: StateProcessing})
	return nil
}

// Stop ends the run. Valid from processing or paused; stopped is terminal.
//
// Workers notice the stop before their next batch and before every backend
// attempt, and retry backoff sleeps are interrupted. A backend call already
// in flight is allowed to finish and its batch is applied. Chapters that
// never started go back to not_started.
func (s *Scheduler) Stop() error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if !s.state.Active() {
		from := s.state
		s.mu.Unlock()
		return transitionError(from, StateStopped)
	}
	s.state = StateStopped
	s.pausing = false
	s.stop()
	s.cond.Broadcast()
	s.mu.Unlock()

	s.logger.Info("run stopped", "run_id", s.runID)
	s.emitLocked(Event{Kind: EventStateChanged, State: StateStopped})
	return nil
}

// Wait blocks until the run finishes or ctx is done.
// Returns immediately if the run was never started.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current run state.
func (s *Scheduler) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// finish runs once every worker has exited.
func (s *Scheduler) finish(ctx context.Context) {
	// Workers may drain the queue on a cancelled parent before the
	// cancellation watcher gets to call Stop.
	cancelled := ctx.Err() != nil
	ctx = context.WithoutCancel(ctx)

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	remaining := s.queue.Drain()
	stoppedHere := false
	switch {
	case s.state == StateStopped:
	case cancelled:
		s.state = StateStopped
		s.pausing = false
		stoppedHere = true
	default:
		// A pause that lands after the last batch finished still completes the run.
		s.state = StateCompleted
		s.pausing = false
	}
	s.finishedAt = time.Now()
	s.mu.Unlock()

	for _, b := range remaining {
		for _, ch := range b.Chapters {
			s.setStatus(ctx, ch, types.StatusNotStarted, "")
		}
	}

	s.mu.Lock()
	snap := s.snapshotLocked()
	s.stop()
	done := s.done
	s.mu.Unlock()

	metrics.QueueDepth.WithLabelValues(s.projectID).Set(0)
	if stoppedHere {
		s.logger.Info("run stopped by context cancellation", "run_id", snap.RunID)
		s.emitLocked(Event{Kind: EventStateChanged, State: StateStopped})
	}
	s.logger.Info("run finished", "run_id", snap.RunID, "state", snap.State,
		"completed", snap.Completed, "failed", snap.Failed, "not_started", len(remaining))
	s.emitLocked(Event{Kind: EventRunCompleted, State: snap.State, Snapshot: &snap})
	close(done)
}

// emit delivers a chapter event.
func (s *Scheduler) emit(e Event) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.emitLocked(e)
}

// emitLocked delivers e; the caller holds emitMu.
func (s *Scheduler) emitLocked(e Event) {
	s.mu.Lock()
	e.RunID = s.runID
	s.mu.Unlock()
	e.ProjectID = s.projectID
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.sink.Emit(e)
}

// setStatus updates the chapter in memory and in the store. Store failures
// are logged; they never fail the chapter.
func (s *Scheduler) setStatus(ctx context.Context, ch *types.Chapter, status types.ChapterStatus, errMsg string) {
	ch.Status = status
	state := store.ChapterState{
		ChapterID:     ch.ID,
		ChapterNumber: ch.Number,
		Status:        status,
		Error:         errMsg,
		RunID:         s.runID,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.store.UpdateStatus(context.WithoutCancel(ctx), s.projectID, state); err != nil {
		s.logger.Warn("failed to persist chapter status", "chapter", ch.ID, "status", status, "error", err)
	}
}
