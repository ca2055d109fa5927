package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", NewTransientError(errors.New("503")), true},
		{"wrapped transient", fmt.Errorf("call: %w", NewTransientError(errors.New("x"))), true},
		{"rate limit", &RateLimitError{Message: "slow down", StatusCode: 429}, true},
		{"fatal", NewFatalError(errors.New("401")), false},
		{"fatal wrapping transient", NewFatalError(NewTransientError(errors.New("x"))), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"unknown", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetriable(tt.err); got != tt.want {
				t.Errorf("IsRetriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("status")
	for _, code := range []int{http.StatusRequestTimeout, http.StatusConflict, 500, 502, 503, 504} {
		if err := classifyStatus(code, base); !IsTransient(err) {
			t.Errorf("status %d should be transient", code)
		}
	}
	for _, code := range []int{400, 401, 403, 404, 422} {
		if err := classifyStatus(code, base); !IsFatal(err) {
			t.Errorf("status %d should be fatal", code)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Errorf("parseRetryAfter(3) = %v", got)
	}
	if got := parseRetryAfter("0.5"); got != 500*time.Millisecond {
		t.Errorf("parseRetryAfter(0.5) = %v", got)
	}
	for _, v := range []string{"", "soon", "-1"} {
		if got := parseRetryAfter(v); got != 0 {
			t.Errorf("parseRetryAfter(%q) = %v, want 0", v, got)
		}
	}
	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > 11*time.Second {
		t.Errorf("parseRetryAfter(date) = %v", got)
	}
}
