package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/redpen/internal/batch"
	"github.com/jackzampolin/redpen/internal/store"
	"github.com/jackzampolin/redpen/internal/types"
)

var (
	// ErrNoRun is returned by control calls for a project that has no scheduler.
	ErrNoRun = errors.New("no run for project")

	// ErrRunActive is returned when an operation needs the project to be idle.
	ErrRunActive = errors.New("run in progress")
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store  store.Store
	Logger *slog.Logger

	// Scheduler returns the configuration for a project's next run.
	// ProjectID and Store are filled in by the manager.
	Scheduler func(projectID string) SchedulerConfig
}

// Manager owns one scheduler per project and the chapter statuses that
// outlive a single run.
type Manager struct {
	store   store.Store
	logger  *slog.Logger
	factory func(string) SchedulerConfig

	mu         sync.Mutex
	schedulers map[string]*Scheduler
}

// NewManager creates a manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st := cfg.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	return &Manager{
		store:      st,
		logger:     logger,
		factory:    cfg.Scheduler,
		schedulers: make(map[string]*Scheduler),
	}
}

// Start begins a run for projectID. A project whose previous run finished
// gets a fresh scheduler; a project with an active run is rejected. opts
// adjust the factory's configuration for this run only.
func (m *Manager) Start(ctx context.Context, projectID string, batches []*batch.Batch, workers int, opts ...func(*SchedulerConfig)) (*Scheduler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.schedulers[projectID]; ok && cur.State().Active() {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrRunActive)
	}
	var cfg SchedulerConfig
	if m.factory != nil {
		cfg = m.factory(projectID)
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.ProjectID = projectID
	cfg.Store = m.store
	if cfg.Logger == nil {
		cfg.Logger = m.logger
	}
	s, err := NewScheduler(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx, batches, workers); err != nil {
		return nil, err
	}
	m.schedulers[projectID] = s
	return s, nil
}

// Scheduler returns the project's most recent scheduler.
func (m *Manager) Scheduler(projectID string) (*Scheduler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedulers[projectID]
	return s, ok
}

// State returns the project's run state; idle when it never ran.
func (m *Manager) State(projectID string) RunState {
	s, ok := m.Scheduler(projectID)
	if !ok {
		return StateIdle
	}
	return s.State()
}

// Pause pauses the project's run.
func (m *Manager) Pause(projectID string) error {
	s, ok := m.Scheduler(projectID)
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNoRun)
	}
	return s.Pause()
}

// Resume resumes the project's run.
func (m *Manager) Resume(projectID string) error {
	s, ok := m.Scheduler(projectID)
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNoRun)
	}
	return s.Resume()
}

// Stop stops the project's run.
func (m *Manager) Stop(projectID string) error {
	s, ok := m.Scheduler(projectID)
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNoRun)
	}
	return s.Stop()
}

// StopAll stops every active run, e.g. on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	scheds := make([]*Scheduler, 0, len(m.schedulers))
	for _, s := range m.schedulers {
		scheds = append(scheds, s)
	}
	m.mu.Unlock()

	for _, s := range scheds {
		if s.State().Active() {
			if err := s.Stop(); err != nil {
				m.logger.Debug("stop skipped", "project", s.ProjectID(), "error", err)
			}
		}
	}
}

// Retry resets one chapter to not_started and clears its error so the next
// run picks it up. It is rejected while the project's run is active.
func (m *Manager) Retry(ctx context.Context, projectID, chapterID string) error {
	if m.State(projectID).Active() {
		return fmt.Errorf("retry chapter %s: %w", chapterID, ErrRunActive)
	}

	st, err := m.store.LoadStatus(ctx, projectID, chapterID)
	if err != nil {
		return fmt.Errorf("retry chapter %s: %w", chapterID, err)
	}
	prev := st.Status
	st.Status = types.StatusNotStarted
	st.Error = ""
	st.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateStatus(ctx, projectID, *st); err != nil {
		return fmt.Errorf("retry chapter %s: %w", chapterID, err)
	}

	m.logger.Info("chapter reset for retry", "project", projectID, "chapter", chapterID, "previous_status", prev)
	return nil
}

// RetryFailed resets every failed chapter of the project and returns their ids.
func (m *Manager) RetryFailed(ctx context.Context, projectID string) ([]string, error) {
	states, err := m.store.ListStatuses(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, st := range states {
		if st.Status != types.StatusFailed {
			continue
		}
		if err := m.Retry(ctx, projectID, st.ChapterID); err != nil {
			return ids, err
		}
		ids = append(ids, st.ChapterID)
	}
	return ids, nil
}

// Pending returns the chapters a new run should process: those never run,
// reset for retry, failed, or left unfinished by an interrupted process.
// Each returned chapter's Status reflects the stored status.
func (m *Manager) Pending(ctx context.Context, projectID string, chapters []*types.Chapter) ([]*types.Chapter, error) {
	states, err := m.store.ListStatuses(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]types.ChapterStatus, len(states))
	for _, st := range states {
		byID[st.ChapterID] = st.Status
	}

	active := m.State(projectID).Active()
	var pending []*types.Chapter
	for _, ch := range chapters {
		status := byID[ch.ID]
		if status == "" {
			status = types.StatusNotStarted
		}
		ch.Status = status
		switch {
		case status.Retryable():
		case !active && (status == types.StatusQueued || status == types.StatusInProgress):
			// Left behind by a process that exited mid-run.
		default:
			continue
		}
		pending = append(pending, ch)
	}
	return pending, nil
}
