package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps everything in process memory. Used by tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	results  map[string]map[string]*ChapterResult
	statuses map[string]map[string]ChapterState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results:  make(map[string]map[string]*ChapterResult),
		statuses: make(map[string]map[string]ChapterState),
	}
}

// SaveResult stores a copy of result.
func (s *MemoryStore) SaveResult(ctx context.Context, projectID string, result *ChapterResult) error {
	if result == nil || result.ChapterID == "" {
		return fmt.Errorf("result requires a chapter id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results[projectID] == nil {
		s.results[projectID] = make(map[string]*ChapterResult)
	}
	cp := *result
	s.results[projectID][result.ChapterID] = &cp
	return nil
}

// LoadResult returns a copy of the saved result.
func (s *MemoryStore) LoadResult(ctx context.Context, projectID, chapterID string) (*ChapterResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[projectID][chapterID]
	if !ok {
		return nil, fmt.Errorf("result %s/%s: %w", projectID, chapterID, ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

// LoadStatus returns the chapter's status.
func (s *MemoryStore) LoadStatus(ctx context.Context, projectID, chapterID string) (*ChapterState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[projectID][chapterID]
	if !ok {
		return nil, fmt.Errorf("status %s/%s: %w", projectID, chapterID, ErrNotFound)
	}
	return &st, nil
}

// UpdateStatus overwrites the chapter's status.
func (s *MemoryStore) UpdateStatus(ctx context.Context, projectID string, state ChapterState) error {
	if state.ChapterID == "" {
		return fmt.Errorf("status requires a chapter id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statuses[projectID] == nil {
		s.statuses[projectID] = make(map[string]ChapterState)
	}
	s.statuses[projectID][state.ChapterID] = state
	return nil
}

// ListStatuses returns every status of the project ordered by chapter number.
func (s *MemoryStore) ListStatuses(ctx context.Context, projectID string) ([]ChapterState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]ChapterState, 0, len(s.statuses[projectID]))
	for _, st := range s.statuses[projectID] {
		states = append(states, st)
	}
	sortStates(states)
	return states, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
