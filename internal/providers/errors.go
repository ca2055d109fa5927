package providers

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TransientError represents a temporary error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent error that should not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// RateLimitError is a transient error carrying the server's Retry-After hint.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	StatusCode int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return e.Message + " (retry after " + e.RetryAfter.String() + ")"
	}
	return e.Message
}

// IsRateLimitError extracts a RateLimitError from err's chain.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	_, ok := IsRateLimitError(err)
	return ok
}

// IsFatal returns true if the error is fatal and should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// IsRetriable classifies err for the retry loop. Explicitly classified errors
// win; otherwise network failures and timeouts are retriable and everything
// else, including cancellation, is not.
func IsRetriable(err error) bool {
	switch {
	case err == nil:
		return false
	case IsFatal(err):
		return false
	case IsTransient(err):
		return true
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classifyStatus wraps err according to an HTTP status code.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusConflict,
		status >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}

// parseRetryAfter reads a Retry-After header given either as seconds or as
// an HTTP date. Unparseable values yield zero.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
