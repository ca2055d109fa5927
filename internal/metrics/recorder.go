package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/jackzampolin/redpen/internal/providers"
)

// Recorder keeps backend call metrics in memory and mirrors them into the
// Prometheus collectors. Safe for concurrent use by workers.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric
}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordOpts provides context for a metric recording.
type RecordOpts struct {
	RunID      string
	ProjectID  string
	BatchIndex int
	WorkerID   int
	Attempts   int
}

// Record stores a single metric.
func (r *Recorder) Record(m Metric) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.mu.Lock()
	r.metrics = append(r.metrics, m)
	r.mu.Unlock()

	status := "success"
	if !m.Success {
		status = "error"
	}
	BackendCalls.WithLabelValues(m.Provider, m.Model, status).Inc()
	if m.ExecutionSeconds > 0 {
		BackendDuration.WithLabelValues(m.Provider, m.Model).Observe(m.ExecutionSeconds)
	}
	if m.PromptTokens > 0 {
		TokensUsed.WithLabelValues(m.Model, "prompt").Add(float64(m.PromptTokens))
	}
	if m.CompletionTokens > 0 {
		TokensUsed.WithLabelValues(m.Model, "completion").Add(float64(m.CompletionTokens))
	}
	if m.CostUSD > 0 {
		CostUSD.WithLabelValues(m.Model).Add(m.CostUSD)
	}
}

// RecordCall records metrics from a successful generation.
func (r *Recorder) RecordCall(opts RecordOpts, result *providers.GenerateResult) error {
	if result == nil {
		return fmt.Errorf("nil generate result")
	}
	r.Record(Metric{
		RunID:      opts.RunID,
		ProjectID:  opts.ProjectID,
		BatchIndex: opts.BatchIndex,
		WorkerID:   opts.WorkerID,
		RequestID:  result.RequestID,

		Provider: result.Provider,
		Model:    result.ModelUsed,

		CostUSD:          result.CostUSD,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,

		ExecutionSeconds: result.ExecutionTime.Seconds(),
		Attempts:         opts.Attempts,
		Success:          true,
	})
	return nil
}

// RecordError records a failed generation as a metric.
func (r *Recorder) RecordError(opts RecordOpts, provider, model, errorType string, duration time.Duration) {
	r.Record(Metric{
		RunID:            opts.RunID,
		ProjectID:        opts.ProjectID,
		BatchIndex:       opts.BatchIndex,
		WorkerID:         opts.WorkerID,
		Provider:         provider,
		Model:            model,
		ExecutionSeconds: duration.Seconds(),
		Attempts:         opts.Attempts,
		Success:          false,
		ErrorType:        errorType,
	})
}

// List returns the recorded metrics matching f, oldest first.
// A limit of zero returns all matches.
func (r *Recorder) List(f Filter, limit int) []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Metric
	for _, m := range r.metrics {
		if !f.Matches(m) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
