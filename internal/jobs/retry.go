package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/redpen/internal/metrics"
	"github.com/jackzampolin/redpen/internal/providers"
)

// RetryConfig bounds backend retries for one batch.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero means the default; negative disables retries.
	MaxRetries int
	// BaseDelay is the first backoff delay; it doubles on every retry.
	BaseDelay time.Duration
	// MaxDelay caps every delay, Retry-After hints included.
	MaxDelay time.Duration
	// MaxJitter is the upper bound of the random delay added to each backoff.
	MaxJitter time.Duration
}

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 30 * time.Second
	DefaultMaxJitter  = time.Second
)

func (c RetryConfig) withDefaults() RetryConfig {
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.MaxJitter < 0 {
		c.MaxJitter = 0
	} else if c.MaxJitter == 0 {
		c.MaxJitter = DefaultMaxJitter
	}
	return c
}

// delayType sleeps for the server's Retry-After when it sent one, otherwise
// exponential backoff plus jitter. retry-go caps the result at MaxDelay.
func (c RetryConfig) delayType() retry.DelayTypeFunc {
	backoff := retry.BackOffDelay
	if c.MaxJitter > 0 {
		backoff = retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)
	}
	return func(n uint, err error, config *retry.Config) time.Duration {
		if rle, ok := providers.IsRateLimitError(err); ok && rle.RetryAfter > 0 {
			return rle.RetryAfter
		}
		return backoff(n, err, config)
	}
}

// generate sends req with retries. Backend calls run on ctx; rate limiter
// waits and backoff sleeps run on stopCtx so Stop interrupts them without
// cancelling a call in flight. Work abandoned because of a stop returns
// ErrStopped.
func (s *Scheduler) generate(ctx, stopCtx context.Context, req *providers.GenerateRequest, logger *slog.Logger) (*providers.GenerateResult, int, error) {
	var (
		result   *providers.GenerateResult
		attempts int
	)

	err := retry.Do(
		func() error {
			if stopCtx.Err() != nil {
				return ErrStopped
			}
			if err := s.limiter.Wait(stopCtx); err != nil {
				return ErrStopped
			}
			attempts++
			r, err := s.gen.Generate(ctx, req)
			if err != nil {
				return err
			}
			result = r
			return nil
		},
		retry.Context(stopCtx),
		retry.Attempts(uint(s.retry.MaxRetries)+1),
		retry.Delay(s.retry.BaseDelay),
		retry.MaxDelay(s.retry.MaxDelay),
		retry.MaxJitter(s.retry.MaxJitter),
		retry.DelayType(s.retry.delayType()),
		retry.RetryIf(providers.IsRetriable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			reason := "transient"
			if rle, ok := providers.IsRateLimitError(err); ok {
				reason = "rate_limit"
				s.limiter.Record429(rle.RetryAfter)
			}
			metrics.BackendRetries.WithLabelValues(reason).Inc()
			logger.Warn("backend call failed, retrying",
				"attempt", n+1, "max_attempts", s.retry.MaxRetries+1, "reason", reason, "error", err)
		}),
	)
	if err == nil {
		return result, attempts, nil
	}
	if errors.Is(err, ErrStopped) || (stopCtx.Err() != nil && !providers.IsFatal(err)) {
		return nil, attempts, ErrStopped
	}
	return nil, attempts, err
}

// errorType labels err for metrics.
func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case providers.IsFatal(err):
		return "fatal"
	}
	if _, ok := providers.IsRateLimitError(err); ok {
		return "rate_limit"
	}
	if providers.IsRetriable(err) {
		return "transient"
	}
	return "unknown"
}
