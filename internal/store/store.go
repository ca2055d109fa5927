// Package store persists per-chapter edit results and processing status.
//
// Every backend is keyed by project id and chapter id, and every write is
// idempotent: saving the same result or status twice leaves the store in the
// same state as saving it once.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jackzampolin/redpen/internal/diff"
	"github.com/jackzampolin/redpen/internal/edits"
	"github.com/jackzampolin/redpen/internal/home"
	"github.com/jackzampolin/redpen/internal/types"
)

// ErrNotFound is returned when no result or status exists for a chapter.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator of the scheduler.
type Store interface {
	SaveResult(ctx context.Context, projectID string, result *ChapterResult) error
	LoadResult(ctx context.Context, projectID, chapterID string) (*ChapterResult, error)
	LoadStatus(ctx context.Context, projectID, chapterID string) (*ChapterState, error)
	UpdateStatus(ctx context.Context, projectID string, state ChapterState) error
	ListStatuses(ctx context.Context, projectID string) ([]ChapterState, error)
	Close() error
}

// ChapterResult is the saved outcome of editing one chapter.
type ChapterResult struct {
	ChapterID     string `json:"chapter_id"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title,omitempty"`

	Original []string           `json:"original_lines"`
	Edited   []string           `json:"edited_lines"`
	Applied  []edits.Operation  `json:"applied,omitempty"`
	Counts   edits.Counts       `json:"counts"`
	Issues   []edits.ApplyIssue `json:"issues,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
	Diff     diff.Stats         `json:"diff"`

	RunID            string    `json:"run_id"`
	BatchIndex       int       `json:"batch_index"`
	WorkerID         int       `json:"worker_id"`
	Style            string    `json:"style,omitempty"`
	PromptHash       string    `json:"prompt_hash,omitempty"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	RawResponse      string    `json:"raw_response,omitempty"`
	ProcessedAt      time.Time `json:"processed_at"`
}

// ChapterState is the processing status of one chapter.
type ChapterState struct {
	ChapterID     string              `json:"chapter_id"`
	ChapterNumber int                 `json:"chapter_number"`
	Status        types.ChapterStatus `json:"status"`
	Error         string              `json:"error,omitempty"`
	RunID         string              `json:"run_id,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// sortStates orders states by chapter number, then id.
func sortStates(states []ChapterState) {
	sort.Slice(states, func(i, j int) bool {
		if states[i].ChapterNumber != states[j].ChapterNumber {
			return states[i].ChapterNumber < states[j].ChapterNumber
		}
		return states[i].ChapterID < states[j].ChapterID
	})
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config selects and configures a store backend.
type Config struct {
	Backend string // memory, file (default) or redis
	Home    *home.Dir
	Redis   RedisConfig
	Logger  *slog.Logger
}

// Open creates the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendFile:
		if cfg.Home == nil {
			return nil, fmt.Errorf("file store requires a home directory")
		}
		return NewFileStore(cfg.Home, cfg.Logger), nil
	case BackendRedis:
		if cfg.Redis.Logger == nil {
			cfg.Redis.Logger = cfg.Logger
		}
		return NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
