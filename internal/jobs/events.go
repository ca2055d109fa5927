package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackzampolin/redpen/internal/diff"
	"github.com/jackzampolin/redpen/internal/edits"
)

// EventKind names a progress event.
type EventKind string

const (
	EventChapterStarted   EventKind = "chapter_started"
	EventChapterCompleted EventKind = "chapter_completed"
	EventChapterFailed    EventKind = "chapter_failed"
	// EventChapterCancelled follows a started event when Stop abandons the chapter's batch.
	EventChapterCancelled EventKind = "chapter_cancelled"
	EventStateChanged     EventKind = "state_changed"
	EventRunCompleted     EventKind = "run_completed"
)

// Event is one progress notification. Chapter fields are empty for run level events.
type Event struct {
	Kind          EventKind     `json:"type"`
	RunID         string        `json:"run_id"`
	ProjectID     string        `json:"project_id"`
	ChapterID     string        `json:"chapter_id,omitempty"`
	ChapterNumber int           `json:"chapter_number,omitempty"`
	BatchIndex    int           `json:"batch_index,omitempty"`
	WorkerID      int           `json:"worker_id,omitempty"`
	Error         string        `json:"error,omitempty"`
	Counts        *edits.Counts `json:"stats,omitempty"`
	Diff          *diff.Stats   `json:"diff,omitempty"`
	Issues        int           `json:"issues,omitempty"`
	State         RunState      `json:"state,omitempty"`
	Snapshot      *Snapshot     `json:"snapshot,omitempty"`
	Time          time.Time     `json:"time"`
}

// Sink receives progress events. The scheduler serializes calls to Emit.
// Emit must not call Scheduler or Manager control methods.
type Sink interface {
	Emit(Event)
}

// FuncSink adapts a function to a Sink.
type FuncSink func(Event)

// Emit calls f.
func (f FuncSink) Emit(e Event) { f(e) }

// MultiSink fans each event out to every sink in order.
type MultiSink []Sink

// Emit forwards e to every non-nil sink.
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// ChanSink delivers events on a channel. Emit blocks while the channel is
// full so that no event is dropped; size the buffer for the consumer.
type ChanSink chan Event

// Emit sends e on the channel.
func (c ChanSink) Emit(e Event) { c <- e }

// LogSink writes events to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Emit logs e at a level matching its kind.
func (l LogSink) Emit(e Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"run_id", e.RunID, "project", e.ProjectID}
	if e.ChapterID != "" {
		attrs = append(attrs, "chapter", e.ChapterID, "chapter_number", e.ChapterNumber, "batch", e.BatchIndex, "worker", e.WorkerID)
	}

	switch e.Kind {
	case EventChapterFailed:
		logger.Warn("chapter failed", append(attrs, "error", e.Error)...)
	case EventChapterCompleted:
		if e.Counts != nil {
			attrs = append(attrs, "edits", e.Counts.Total(), "issues", e.Issues)
		}
		logger.Info("chapter completed", attrs...)
	case EventChapterCancelled:
		logger.Info("chapter cancelled", attrs...)
	case EventChapterStarted:
		logger.Debug("chapter started", attrs...)
	case EventStateChanged:
		logger.Info("run state changed", append(attrs, "state", e.State)...)
	case EventRunCompleted:
		if e.Snapshot != nil {
			attrs = append(attrs, "completed", e.Snapshot.Completed, "failed", e.Snapshot.Failed)
		}
		logger.Info("run finished", append(attrs, "state", e.State)...)
	default:
		logger.Debug("event", append(attrs, "kind", e.Kind)...)
	}
}

type workerIDKey struct{}

// withWorkerID returns a context carrying the id of the worker processing it.
func withWorkerID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, workerIDKey{}, id)
}

// WorkerIDFromContext returns the id of the worker whose backend call ctx belongs to.
func WorkerIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(workerIDKey{}).(int)
	return id, ok
}
