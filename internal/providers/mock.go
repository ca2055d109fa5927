package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is a scripted Generator for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ResponseText string

	// Respond, when set, computes the response per request and takes
	// precedence over ResponseText.
	Respond func(ctx context.Context, req *GenerateRequest) (string, error)

	// Errors are returned, in order, by the first len(Errors) calls.
	Errors []error

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []GenerateRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      10 * time.Millisecond,
		ResponseText: "NO_EDITS_NEEDED",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Calls returns the number of Generate calls so far.
func (c *MockClient) Calls() int {
	return int(c.requestCount.Load())
}

// Requests returns a copy of every request received.
func (c *MockClient) Requests() []GenerateRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]GenerateRequest(nil), c.requests...)
}

// Generate returns the scripted response after Latency.
func (c *MockClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	if req != nil {
		c.requests = append(c.requests, *req)
	}
	c.mu.Unlock()

	// Simulate latency
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if i := int(count) - 1; i < len(c.Errors) && c.Errors[i] != nil {
		return nil, c.Errors[i]
	}

	content := c.ResponseText
	if c.Respond != nil {
		var err error
		content, err = c.Respond(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	// Simulate token counting
	promptTokens := 0
	if req != nil {
		promptTokens = (len(req.SystemPrompt) + len(req.UserContent)) / 4
	}
	completionTokens := len(content) / 4

	return &GenerateResult{
		Content:          content,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		ExecutionTime:    time.Since(start),
		Provider:         MockClientName,
		ModelUsed:        modelOf(req),
		RequestID:        fmt.Sprintf("mock-%d", count),
	}, nil
}

// HealthCheck always succeeds.
func (c *MockClient) HealthCheck(context.Context) error {
	return nil
}

func modelOf(req *GenerateRequest) string {
	if req == nil || req.Model == "" {
		return MockClientName
	}
	return req.Model
}

var _ Generator = (*MockClient)(nil)
