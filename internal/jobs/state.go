// Package jobs runs copy-editing passes over a project's chapters.
//
// A Scheduler owns one run of a bounded worker pool draining a FIFO queue of
// batches. Its RunState machine is:
//
//	idle -> processing -> completed
//	processing <-> paused
//	processing, paused -> stopped
//	paused -> completed (pause requested after the last batch finished)
//
// completed and stopped are terminal. Every control call (Start, Pause,
// Resume, Stop) is evaluated under one mutex.
//
// Progress events are delivered in the order work finishes. Across batches no
// ordering is guaranteed; a chapter's own events are always ordered, started
// before completed or failed.
package jobs

import (
	"errors"
	"fmt"
)

// RunState is the processing lifecycle of one project.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateProcessing RunState = "processing"
	StatePaused     RunState = "paused"
	StateStopped    RunState = "stopped"
	StateCompleted  RunState = "completed"
)

// Terminal reports whether no further transition is possible.
func (s RunState) Terminal() bool {
	return s == StateStopped || s == StateCompleted
}

// Active reports whether a run is in progress (processing or paused).
func (s RunState) Active() bool {
	return s == StateProcessing || s == StatePaused
}

var transitions = map[RunState][]RunState{
	StateIdle:       {StateProcessing},
	StateProcessing: {StatePaused, StateStopped, StateCompleted},
	StatePaused:     {StateProcessing, StateStopped, StateCompleted},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to RunState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var (
	// ErrInvalidTransition is returned by control calls that are not legal in the current state.
	ErrInvalidTransition = errors.New("invalid run state transition")

	// ErrInvalidWorkerCount is returned by Start when the worker count is outside 1..MaxWorkers.
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrMalformedResponse marks a non-empty backend response without a single valid operation.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrStopped is the cause recorded for work abandoned by Stop.
	ErrStopped = errors.New("run stopped")
)

// MaxWorkers is the largest worker count Start accepts.
const MaxWorkers = 10

func transitionError(from, to RunState) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// ChapterError is the failure recorded for one chapter.
type ChapterError struct {
	ChapterID string
	Cause     error
}

func (e *ChapterError) Error() string {
	return fmt.Sprintf("chapter %s: %v", e.ChapterID, e.Cause)
}

func (e *ChapterError) Unwrap() error {
	return e.Cause
}
