package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/redpen/internal/tokens"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAIConfig holds configuration for the OpenAI-compatible chat client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string        // Any OpenAI-compatible endpoint; empty uses api.openai.com
	Model       string        // Default model when a request leaves it empty
	Temperature float64       // Default temperature
	MaxTokens   int           // Default completion limit
	Timeout     time.Duration // HTTP timeout
	HTTPClient  *http.Client  // Optional (tests)
}

// OpenAIClient implements Generator using the official OpenAI SDK.
// SDK-level retries are disabled; the caller owns retry policy.
type OpenAIClient struct {
	model       string
	temperature float64
	maxTokens   int
	client      openai.Client
}

// NewOpenAIClient creates a new chat client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Generate sends a chat completion with a system and a user message.
func (c *OpenAIClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	if req == nil {
		return nil, NewFatalError(fmt.Errorf("request is required"))
	}
	if strings.TrimSpace(req.UserContent) == "" {
		return nil, NewFatalError(fmt.Errorf("user content is required"))
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserContent))

	params := openai.ChatCompletionNewParams{
		Messages:  messages,
		Model:     openai.ChatModel(model),
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	// Zero leaves the temperature to the backend.
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, NewTransientError(fmt.Errorf("openai returned no choices"))
	}

	used := resp.Model
	if used == "" {
		used = model
	}
	prompt := int(resp.Usage.PromptTokens)
	completion := int(resp.Usage.CompletionTokens)

	return &GenerateResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      int(resp.Usage.TotalTokens),
		CostUSD:          tokens.EstimateCost(used, prompt, completion),
		ExecutionTime:    time.Since(start),
		Provider:         OpenAIName,
		ModelUsed:        used,
		RequestID:        requestID,
	}, nil
}

// HealthCheck verifies the endpoint is reachable and the API key is valid.
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("openai models list failed: %w", mapOpenAIError(err))
	}
	if page == nil {
		return fmt.Errorf("openai models list returned nil response")
	}
	return nil
}

// mapOpenAIError classifies SDK errors as transient or fatal.
func mapOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Response != nil {
				retryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			}
			return &RateLimitError{
				Message:    fmt.Sprintf("OpenAI rate limited: %s", apiErr.Message),
				RetryAfter: retryAfter,
				StatusCode: apiErr.StatusCode,
			}
		}
		msg := fmt.Errorf("OpenAI error (status %d)", apiErr.StatusCode)
		if apiErr.Message != "" {
			msg = fmt.Errorf("OpenAI error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return classifyStatus(apiErr.StatusCode, msg)
	}

	// Transport failures and client timeouts.
	return NewTransientError(fmt.Errorf("openai request failed: %w", err))
}

var _ Generator = (*OpenAIClient)(nil)
var _ HealthChecker = (*OpenAIClient)(nil)
