package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackzampolin/redpen/internal/home"
)

// FileStore writes JSON documents under the redpen home directory:
//
//	data/projects/<project>/results/<chapter>.json
//	data/projects/<project>/status.json
//
// Writes go to a temporary file in the same directory and are renamed into
// place, so readers never observe a partially written document.
type FileStore struct {
	home   *home.Dir
	logger *slog.Logger

	// mu serializes read-modify-write cycles on status files.
	mu sync.Mutex
}

// NewFileStore creates a store rooted at the given home directory.
func NewFileStore(h *home.Dir, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{home: h, logger: logger}
}

// SaveResult writes the chapter's result document.
func (s *FileStore) SaveResult(ctx context.Context, projectID string, result *ChapterResult) error {
	if result == nil || result.ChapterID == "" {
		return fmt.Errorf("result requires a chapter id")
	}
	path := s.home.ResultPath(projectID, result.ChapterID)
	if err := writeJSON(path, result); err != nil {
		return fmt.Errorf("save result %s/%s: %w", projectID, result.ChapterID, err)
	}
	s.logger.Debug("saved chapter result", "project", projectID, "chapter", result.ChapterID, "path", path)
	return nil
}

// LoadResult reads the chapter's result document.
func (s *FileStore) LoadResult(ctx context.Context, projectID, chapterID string) (*ChapterResult, error) {
	var r ChapterResult
	if err := readJSON(s.home.ResultPath(projectID, chapterID), &r); err != nil {
		return nil, fmt.Errorf("result %s/%s: %w", projectID, chapterID, err)
	}
	return &r, nil
}

// LoadStatus returns the chapter's entry from the project's status index.
func (s *FileStore) LoadStatus(ctx context.Context, projectID, chapterID string) (*ChapterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.readIndex(projectID)
	if err != nil {
		return nil, err
	}
	st, ok := idx[chapterID]
	if !ok {
		return nil, fmt.Errorf("status %s/%s: %w", projectID, chapterID, ErrNotFound)
	}
	return &st, nil
}

// UpdateStatus rewrites the project's status index with state applied.
func (s *FileStore) UpdateStatus(ctx context.Context, projectID string, state ChapterState) error {
	if state.ChapterID == "" {
		return fmt.Errorf("status requires a chapter id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.readIndex(projectID)
	if err != nil {
		return err
	}
	idx[state.ChapterID] = state
	if err := writeJSON(s.home.StatusPath(projectID), idx); err != nil {
		return fmt.Errorf("update status %s/%s: %w", projectID, state.ChapterID, err)
	}
	return nil
}

// ListStatuses returns every status of the project ordered by chapter number.
func (s *FileStore) ListStatuses(ctx context.Context, projectID string) ([]ChapterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.readIndex(projectID)
	if err != nil {
		return nil, err
	}
	states := make([]ChapterState, 0, len(idx))
	for _, st := range idx {
		states = append(states, st)
	}
	sortStates(states)
	return states, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// readIndex loads the status index; a missing file is an empty index.
func (s *FileStore) readIndex(projectID string) (map[string]ChapterState, error) {
	idx := make(map[string]ChapterState)
	err := readJSON(s.home.StatusPath(projectID), &idx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("read status index for %s: %w", projectID, err)
	}
	return idx, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
