package providers

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces backend requests with a token bucket and honors
// server-requested pauses after a 429.
type RateLimiter struct {
	limiter *rate.Limiter

	mu          sync.Mutex
	pausedUntil time.Time

	// Statistics
	totalConsumed int64
	totalWaited   time.Duration
	last429Time   time.Time
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	TokensAvailable int           `json:"tokens_available"`
	RPS             float64       `json:"rps"`
	PausedFor       time.Duration `json:"paused_for,omitempty"`
	TotalConsumed   int64         `json:"total_consumed"`
	TotalWaited     time.Duration `json:"total_waited"`
	Last429Time     time.Time     `json:"last_429_time,omitempty"`
}

// NewRateLimiter creates a limiter allowing rps requests per second.
// A non-positive rps disables pacing.
func NewRateLimiter(rps float64) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(limitFor(rps), burstFor(rps))}
}

func limitFor(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}

func burstFor(rps float64) int {
	if rps <= 1 {
		return 1
	}
	return int(math.Ceil(rps))
}

// SetRPS changes the rate, e.g. after a config reload.
func (r *RateLimiter) SetRPS(rps float64) {
	r.limiter.SetLimit(limitFor(rps))
	r.limiter.SetBurst(burstFor(rps))
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()

	r.mu.Lock()
	pause := time.Until(r.pausedUntil)
	r.mu.Unlock()
	if pause > 0 {
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.totalConsumed++
	r.totalWaited += time.Since(start)
	r.mu.Unlock()
	return nil
}

// Record429 should be called when a 429 error is received. A positive
// retryAfter pauses every caller of Wait for that long.
func (r *RateLimiter) Record429(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.last429Time = now
	if until := now.Add(retryAfter); retryAfter > 0 && until.After(r.pausedUntil) {
		r.pausedUntil = until
	}
}

// Status returns current limiter status.
func (r *RateLimiter) Status() RateLimiterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := RateLimiterStatus{
		TotalConsumed: r.totalConsumed,
		TotalWaited:   r.totalWaited,
		Last429Time:   r.last429Time,
	}
	if limit := r.limiter.Limit(); limit != rate.Inf {
		st.RPS = float64(limit)
		st.TokensAvailable = int(r.limiter.Tokens())
	} else {
		st.TokensAvailable = r.limiter.Burst()
	}
	if d := time.Until(r.pausedUntil); d > 0 {
		st.PausedFor = d
	}
	return st
}
