package metrics

import (
	"sort"
	"time"
)

// Summary provides a summary of metrics for a filter.
type Summary struct {
	Count                 int           `json:"count"`
	SuccessCount          int           `json:"success_count"`
	ErrorCount            int           `json:"error_count"`
	TotalCostUSD          float64       `json:"total_cost_usd"`
	TotalPromptTokens     int           `json:"total_prompt_tokens"`
	TotalCompletionTokens int           `json:"total_completion_tokens"`
	TotalTokens           int           `json:"total_tokens"`
	TotalTime             time.Duration `json:"total_time"`
	TotalAttempts         int           `json:"total_attempts"`

	AvgCostUSD float64 `json:"avg_cost_usd"`
	AvgTokens  float64 `json:"avg_tokens"`

	// Latency percentiles (seconds)
	LatencyP50 float64 `json:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95"`
	LatencyMax float64 `json:"latency_max"`
}

// Summarize returns a summary of recorded metrics matching the filter.
func (r *Recorder) Summarize(f Filter) *Summary {
	return summarize(r.List(f, 0))
}

func summarize(metrics []Metric) *Summary {
	s := &Summary{Count: len(metrics)}
	if len(metrics) == 0 {
		return s
	}

	var latencies []float64
	for _, m := range metrics {
		s.TotalCostUSD += m.CostUSD
		s.TotalPromptTokens += m.PromptTokens
		s.TotalCompletionTokens += m.CompletionTokens
		s.TotalTokens += m.TotalTokens
		s.TotalTime += time.Duration(m.ExecutionSeconds * float64(time.Second))
		s.TotalAttempts += m.Attempts
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
		if m.ExecutionSeconds > 0 {
			latencies = append(latencies, m.ExecutionSeconds)
		}
	}

	count := float64(s.Count)
	s.AvgCostUSD = s.TotalCostUSD / count
	s.AvgTokens = float64(s.TotalTokens) / count

	if len(latencies) > 0 {
		sort.Float64s(latencies)
		s.LatencyMax = latencies[len(latencies)-1]
		s.LatencyP50 = percentile(latencies, 50)
		s.LatencyP95 = percentile(latencies, 95)
	}
	return s
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	n := float64(len(sorted))
	idx := (p / 100.0) * (n - 1)

	// Interpolate between floor and ceil indices
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
