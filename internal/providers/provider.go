package providers

import (
	"context"
	"time"
)

// Generator is a text-generation backend. Implementations must return errors
// that IsRetriable can classify: wrap them in TransientError, FatalError or
// RateLimitError.
type Generator interface {
	// Generate sends one system + user exchange and returns the completion.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Name returns the backend identifier (e.g., "openai").
	Name() string
}

// HealthChecker is implemented by backends that can verify connectivity
// and credentials without generating text.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// GenerateRequest is a single completion request.
type GenerateRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserContent  string `json:"user_content"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// GenerateResult is the completion returned by a backend.
type GenerateResult struct {
	Content string `json:"content"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Cost and timing
	CostUSD       float64       `json:"cost_usd"`
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`
}
