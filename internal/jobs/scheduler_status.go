package jobs

import (
	"time"

	"github.com/jackzampolin/redpen/internal/providers"
)

// Snapshot is a point-in-time view of a run.
type Snapshot struct {
	RunID         string    `json:"run_id"`
	ProjectID     string    `json:"project_id"`
	State         RunState  `json:"state"`
	Pausing       bool      `json:"pausing,omitempty"`
	WorkerCount   int       `json:"worker_count"`
	ActiveWorkers int       `json:"active_workers"`
	QueueDepth    int       `json:"queue_depth"`
	Total         int       `json:"total"`
	Completed     int       `json:"completed"`
	Failed        int       `json:"failed"`
	Cancelled     int       `json:"cancelled,omitempty"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	FinishedAt    time.Time `json:"finished_at,omitempty"`
}

// Remaining returns chapters that have not reached a final status in this run.
func (s Snapshot) Remaining() int {
	return s.Total - s.Completed - s.Failed - s.Cancelled
}

// Elapsed returns the run's wall time so far.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Snapshot returns the current run status.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Scheduler) snapshotLocked() Snapshot {
	return Snapshot{
		RunID:         s.runID,
		ProjectID:     s.projectID,
		State:         s.state,
		Pausing:       s.pausing,
		WorkerCount:   s.workerCount,
		ActiveWorkers: s.active,
		QueueDepth:    s.queue.Len(),
		Total:         s.total,
		Completed:     s.completed,
		Failed:        s.failed,
		Cancelled:     s.cancelled,
		StartedAt:     s.startedAt,
		FinishedAt:    s.finishedAt,
	}
}

// ActiveWorkers returns the number of workers holding a batch.
func (s *Scheduler) ActiveWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// RateLimiterStatus reports the backend rate limiter's state.
func (s *Scheduler) RateLimiterStatus() providers.RateLimiterStatus {
	return s.limiter.Status()
}
