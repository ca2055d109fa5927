package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	Prefix       string // key prefix, default "redpen"
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// RedisStore keeps results as JSON strings and statuses in one hash per project:
//
//	<prefix>:<project>:result:<chapter>   string
//	<prefix>:<project>:status             hash chapter -> JSON state
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisStoreFromClient(rdb, cfg.Prefix, cfg.Logger), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	if prefix == "" {
		prefix = "redpen"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{rdb: rdb, prefix: prefix, logger: logger}
}

func (s *RedisStore) resultKey(projectID, chapterID string) string {
	return fmt.Sprintf("%s:%s:result:%s", s.prefix, projectID, chapterID)
}

func (s *RedisStore) statusKey(projectID string) string {
	return fmt.Sprintf("%s:%s:status", s.prefix, projectID)
}

// SaveResult stores the result document.
func (s *RedisStore) SaveResult(ctx context.Context, projectID string, result *ChapterResult) error {
	if result == nil || result.ChapterID == "" {
		return fmt.Errorf("result requires a chapter id")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := s.rdb.Set(ctx, s.resultKey(projectID, result.ChapterID), data, 0).Err(); err != nil {
		return fmt.Errorf("save result %s/%s: %w", projectID, result.ChapterID, err)
	}
	return nil
}

// LoadResult reads the result document.
func (s *RedisStore) LoadResult(ctx context.Context, projectID, chapterID string) (*ChapterResult, error) {
	data, err := s.rdb.Get(ctx, s.resultKey(projectID, chapterID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("result %s/%s: %w", projectID, chapterID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load result %s/%s: %w", projectID, chapterID, err)
	}
	var r ChapterResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode result %s/%s: %w", projectID, chapterID, err)
	}
	return &r, nil
}

// LoadStatus reads one field of the project's status hash.
func (s *RedisStore) LoadStatus(ctx context.Context, projectID, chapterID string) (*ChapterState, error) {
	data, err := s.rdb.HGet(ctx, s.statusKey(projectID), chapterID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("status %s/%s: %w", projectID, chapterID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load status %s/%s: %w", projectID, chapterID, err)
	}
	var st ChapterState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode status %s/%s: %w", projectID, chapterID, err)
	}
	return &st, nil
}

// UpdateStatus overwrites one field of the project's status hash.
func (s *RedisStore) UpdateStatus(ctx context.Context, projectID string, state ChapterState) error {
	if state.ChapterID == "" {
		return fmt.Errorf("status requires a chapter id")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.statusKey(projectID), state.ChapterID, data).Err(); err != nil {
		return fmt.Errorf("update status %s/%s: %w", projectID, state.ChapterID, err)
	}
	return nil
}

// ListStatuses returns every status of the project ordered by chapter number.
func (s *RedisStore) ListStatuses(ctx context.Context, projectID string) ([]ChapterState, error) {
	fields, err := s.rdb.HGetAll(ctx, s.statusKey(projectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list statuses for %s: %w", projectID, err)
	}
	states := make([]ChapterState, 0, len(fields))
	for id, raw := range fields {
		var st ChapterState
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			s.logger.Warn("skipping undecodable status", "project", projectID, "chapter", id, "error", err)
			continue
		}
		states = append(states, st)
	}
	sortStates(states)
	return states, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
