package jobs

import (
	"errors"
	"sync"

	"github.com/jackzampolin/redpen/internal/batch"
)

// ErrNilBatch is returned when attempting to push a nil batch.
var ErrNilBatch = errors.New("cannot push nil batch")

// BatchQueue is a thread-safe FIFO queue of batches.
// Batches are dequeued in push order, never by completion speed.
type BatchQueue struct {
	mu     sync.Mutex
	items  []*batch.Batch
	notify chan struct{} // Signaled when items are pushed
}

// NewBatchQueue creates a new queue.
func NewBatchQueue() *BatchQueue {
	return &BatchQueue{
		notify: make(chan struct{}, 1), // Buffered to avoid blocking Push
	}
}

// Push appends a batch to the queue.
// Returns an error if b is nil.
func (q *BatchQueue) Push(b *batch.Batch) error {
	if b == nil {
		return ErrNilBatch
	}

	q.mu.Lock()
	q.items = append(q.items, b)
	q.mu.Unlock()

	// Signal waiting consumers (non-blocking)
	select {
	case q.notify <- struct{}{}:
	default:
		// Channel already has a pending notification
	}
	return nil
}

// Pop removes and returns the oldest batch.
// Blocks until an item is available or the done channel is closed.
// Returns nil if done is closed while waiting.
func (q *BatchQueue) Pop(done <-chan struct{}) *batch.Batch {
	for {
		if b := q.TryPop(); b != nil {
			return b
		}

		// Wait for notification or cancellation
		select {
		case <-done:
			return nil
		case <-q.notify:
			// Item may have been pushed, loop to check
		}
	}
}

// TryPop attempts to pop without blocking.
// Returns nil if queue is empty.
func (q *BatchQueue) TryPop() *batch.Batch {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	b := q.items[0]
	q.items[0] = nil // Avoid memory leak
	q.items = q.items[1:]
	return b
}

// Drain removes and returns every queued batch.
func (q *BatchQueue) Drain() []*batch.Batch {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of items in the queue.
func (q *BatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
