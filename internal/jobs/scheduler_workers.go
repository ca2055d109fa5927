package jobs

import (
	"context"

	"github.com/jackzampolin/redpen/internal/batch"
	"github.com/jackzampolin/redpen/internal/metrics"
)

// workerLoop pulls batches until the queue drains or the run stops.
func (s *Scheduler) workerLoop(ctx, stopCtx context.Context, id int) {
	logger := s.logger.With("worker", id)
	logger.Debug("worker started")

	for {
		b, ok := s.next()
		if !ok {
			logger.Debug("worker stopping")
			return
		}
		s.processBatch(withWorkerID(ctx, id), stopCtx, id, b)
		s.release()
	}
}

// next blocks while the run is paused and returns the next batch, or false
// when the queue is drained or the run stopped.
func (s *Scheduler) next() (*batch.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.state == StateStopped {
			return nil, false
		}
		if s.pausing || s.state == StatePaused {
			s.cond.Wait()
			continue
		}
		b := s.queue.TryPop()
		if b == nil {
			return nil, false
		}
		s.active++
		metrics.ActiveWorkers.WithLabelValues(s.projectID).Inc()
		metrics.QueueDepth.WithLabelValues(s.projectID).Set(float64(s.queue.Len()))
		return b, true
	}
}

// release marks a worker idle and completes a pending pause.
func (s *Scheduler) release() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.active--
	paused := false
	if s.pausing && s.active == 0 {
		s.pausing = false
		s.state = StatePaused
		paused = true
	}
	s.cond.Broadcast()
	s.mu.Unlock()

	metrics.ActiveWorkers.WithLabelValues(s.projectID).Dec()
	if paused {
		s.logger.Info("run paused", "run_id", s.runID)
		s.emitLocked(Event{Kind: EventStateChanged, State: StatePaused})
	}
}
