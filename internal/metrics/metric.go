// Package metrics provides cost and usage tracking for backend calls and the
// Prometheus collectors exported by the edit scheduler.
package metrics

import "time"

// Metric represents a single recorded backend call.
// Metrics are append-only records with full attribution.
type Metric struct {
	// Attribution (for filtering/aggregation)
	RunID      string `json:"run_id,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	BatchIndex int    `json:"batch_index"`
	WorkerID   int    `json:"worker_id,omitempty"`
	RequestID  string `json:"request_id,omitempty"`

	// Provider info
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Cost and tokens
	CostUSD          float64 `json:"cost_usd,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`

	// Timing
	ExecutionSeconds float64 `json:"execution_seconds,omitempty"`
	Attempts         int     `json:"attempts,omitempty"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Filter specifies which metrics a query matches. Zero fields match anything.
type Filter struct {
	RunID     string
	ProjectID string
	Provider  string
	Model     string
	After     time.Time
	Before    time.Time
	Success   *bool // nil = any, true = success only, false = errors only
}

// Matches reports whether m passes the filter.
func (f Filter) Matches(m Metric) bool {
	if f.RunID != "" && m.RunID != f.RunID {
		return false
	}
	if f.ProjectID != "" && m.ProjectID != f.ProjectID {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	if f.Model != "" && m.Model != f.Model {
		return false
	}
	if !f.After.IsZero() && !m.CreatedAt.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !m.CreatedAt.Before(f.Before) {
		return false
	}
	if f.Success != nil && m.Success != *f.Success {
		return false
	}
	return true
}
