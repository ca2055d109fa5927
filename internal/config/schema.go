package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds redpen configuration.
// Stored at: ./config.yaml or {home}/config.yaml
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Processing ProcessingConfig `mapstructure:"processing" yaml:"processing"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	Provider         string        `mapstructure:"provider" yaml:"provider"` // "openai" or "mock"
	BaseURL          string        `mapstructure:"base_url" yaml:"base_url"` // Any OpenAI-compatible endpoint
	APIKey           string        `mapstructure:"api_key" yaml:"api_key"`   // Supports ${ENV_VAR} syntax
	Model            string        `mapstructure:"model" yaml:"model"`
	Temperature      float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxOutputTokens  int           `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
	MaxContextTokens int           `mapstructure:"max_context_tokens" yaml:"max_context_tokens"`
	RPS              float64       `mapstructure:"rps" yaml:"rps"` // Requests per second, 0 = unlimited
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ExactTokens      bool          `mapstructure:"exact_tokens" yaml:"exact_tokens"` // Use the BPE tokenizer
}

// ProcessingConfig tunes batching and the worker pool.
type ProcessingConfig struct {
	Workers             int           `mapstructure:"workers" yaml:"workers"`
	SafetyMargin        int           `mapstructure:"safety_margin" yaml:"safety_margin"`
	MaxChaptersPerBatch int           `mapstructure:"max_chapters_per_batch" yaml:"max_chapters_per_batch"`
	MaxRetries          int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	RetryMaxDelay       time.Duration `mapstructure:"retry_max_delay" yaml:"retry_max_delay"`
	Style               string        `mapstructure:"style" yaml:"style"` // light, moderate, heavy
	ContextLines        int           `mapstructure:"context_lines" yaml:"context_lines"`
}

// StorageConfig selects where results and statuses are kept.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend"` // file, redis, memory
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"` // Supports ${ENV_VAR} syntax
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"` // Empty disables the listener
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:         "openai",
			APIKey:           "${OPENAI_API_KEY}",
			Model:            "gpt-4o-mini",
			Temperature:      0.3,
			MaxOutputTokens:  4096,
			MaxContextTokens: 4096,
			Timeout:          5 * time.Minute,
		},
		Processing: ProcessingConfig{
			Workers:        5,
			SafetyMargin:   500,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
			RetryMaxDelay:  30 * time.Second,
			Style:          "moderate",
		},
		Storage: StorageConfig{
			Backend:     "file",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "redpen",
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.MaxContextTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_context_tokens must be positive, got %d", c.LLM.MaxContextTokens))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be within 0..2, got %g", c.LLM.Temperature))
	}
	if c.LLM.RPS < 0 {
		errs = append(errs, fmt.Errorf("llm.rps must not be negative, got %g", c.LLM.RPS))
	}
	if c.Processing.Workers < 1 || c.Processing.Workers > 10 {
		errs = append(errs, fmt.Errorf("processing.workers must be within 1..10, got %d", c.Processing.Workers))
	}
	if c.Processing.SafetyMargin < 0 {
		errs = append(errs, fmt.Errorf("processing.safety_margin must not be negative, got %d", c.Processing.SafetyMargin))
	}
	if c.Processing.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("processing.context_lines must not be negative, got %d", c.Processing.ContextLines))
	}
	switch c.Storage.Backend {
	case "file", "redis", "memory", "":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be file, redis or memory, got %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}
