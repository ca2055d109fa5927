// Package svcctx provides service context for dependency injection via context.
// This package is separate from cmd to avoid import cycles with the packages
// that consume services.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/redpen/internal/config"
	"github.com/jackzampolin/redpen/internal/home"
	"github.com/jackzampolin/redpen/internal/jobs"
	"github.com/jackzampolin/redpen/internal/metrics"
	"github.com/jackzampolin/redpen/internal/providers"
	"github.com/jackzampolin/redpen/internal/store"
	"github.com/jackzampolin/redpen/internal/tokens"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Config     *config.Manager
	Home       *home.Dir
	Logger     *slog.Logger
	Store      store.Store
	Generator  providers.Generator
	Limiter    *providers.RateLimiter
	JobManager *jobs.Manager
	Recorder   *metrics.Recorder
	Estimator  *tokens.Estimator
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// StoreFrom extracts the result store from context.
func StoreFrom(ctx context.Context) store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// GeneratorFrom extracts the generation backend from context.
func GeneratorFrom(ctx context.Context) providers.Generator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Generator
	}
	return nil
}

// JobManagerFrom extracts the job manager from context.
func JobManagerFrom(ctx context.Context) *jobs.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.JobManager
	}
	return nil
}

// RecorderFrom extracts the metrics recorder from context.
func RecorderFrom(ctx context.Context) *metrics.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Recorder
	}
	return nil
}

// EstimatorFrom extracts the token estimator from context.
func EstimatorFrom(ctx context.Context) *tokens.Estimator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Estimator
	}
	return nil
}
