package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/viper"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Entry is one documented configuration key.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DefaultEntries returns the default configuration entries.
// These seed viper's defaults and back `redpen config show`.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// ===================
		// Generation backend
		// ===================
		{
			Key:         "llm.provider",
			Value:       d.LLM.Provider,
			Description: "Backend type: openai (any OpenAI-compatible endpoint) or mock",
		},
		{
			Key:         "llm.base_url",
			Value:       d.LLM.BaseURL,
			Description: "Base URL of the chat completions API; empty uses api.openai.com",
		},
		{
			Key:         "llm.api_key",
			Value:       d.LLM.APIKey,
			Description: "API key (uses environment variable)",
		},
		{
			Key:         "llm.model",
			Value:       d.LLM.Model,
			Description: "Model used for copy-editing",
		},
		{
			Key:         "llm.temperature",
			Value:       d.LLM.Temperature,
			Description: "Sampling temperature (0-2)",
		},
		{
			Key:         "llm.max_output_tokens",
			Value:       d.LLM.MaxOutputTokens,
			Description: "Completion limit per backend call; 0 leaves it to the backend",
		},
		{
			Key:         "llm.max_context_tokens",
			Value:       d.LLM.MaxContextTokens,
			Description: "Context window used to size batches",
		},
		{
			Key:         "llm.rps",
			Value:       d.LLM.RPS,
			Description: "Rate limit in requests per second (0 = unlimited)",
		},
		{
			Key:         "llm.timeout",
			Value:       d.LLM.Timeout,
			Description: "HTTP timeout per backend call",
		},
		{
			Key:         "llm.exact_tokens",
			Value:       d.LLM.ExactTokens,
			Description: "Count tokens with the model's BPE encoding instead of the word estimate",
		},

		// ===================
		// Processing
		// ===================
		{
			Key:         "processing.workers",
			Value:       d.Processing.Workers,
			Description: "Concurrent workers (1-10)",
		},
		{
			Key:         "processing.safety_margin",
			Value:       d.Processing.SafetyMargin,
			Description: "Tokens held back from every batch budget",
		},
		{
			Key:         "processing.max_chapters_per_batch",
			Value:       d.Processing.MaxChaptersPerBatch,
			Description: "Upper bound on chapters per batch (0 = no limit)",
		},
		{
			Key:         "processing.max_retries",
			Value:       d.Processing.MaxRetries,
			Description: "Retries after a failed backend call",
		},
		{
			Key:         "processing.retry_base_delay",
			Value:       d.Processing.RetryBaseDelay,
			Description: "First retry delay; doubles on every retry",
		},
		{
			Key:         "processing.retry_max_delay",
			Value:       d.Processing.RetryMaxDelay,
			Description: "Cap on any retry delay, Retry-After included",
		},
		{
			Key:         "processing.style",
			Value:       d.Processing.Style,
			Description: "Editing style: light, moderate or heavy",
		},
		{
			Key:         "processing.context_lines",
			Value:       d.Processing.ContextLines,
			Description: "Lines of the neighbouring chapters shown for context (0 = off)",
		},

		// ===================
		// Storage
		// ===================
		{
			Key:         "storage.backend",
			Value:       d.Storage.Backend,
			Description: "Result store: file, redis or memory",
		},
		{
			Key:         "storage.redis_addr",
			Value:       d.Storage.RedisAddr,
			Description: "Redis address for the redis backend",
		},
		{
			Key:         "storage.redis_password",
			Value:       d.Storage.RedisPassword,
			Description: "Redis password (supports ${ENV_VAR})",
		},
		{
			Key:         "storage.redis_db",
			Value:       d.Storage.RedisDB,
			Description: "Redis database number",
		},
		{
			Key:         "storage.redis_prefix",
			Value:       d.Storage.RedisPrefix,
			Description: "Key prefix for the redis backend",
		},

		// ===================
		// Metrics
		// ===================
		{
			Key:         "metrics.addr",
			Value:       d.Metrics.Addr,
			Description: "Listen address for /metrics during runs (empty = disabled)",
		},
	}
}

// setDefaults registers every default entry with v.
func setDefaults(v *viper.Viper) {
	for _, e := range DefaultEntries() {
		v.SetDefault(e.Key, e.Value)
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// Effective returns every known key with its current value in v, described by its
// default entry. Entries are sorted by key.
func Effective(v *viper.Viper) []Entry {
	entries := DefaultEntries()
	for i := range entries {
		val := v.Get(entries[i].Key)
		if d, ok := val.(time.Duration); ok {
			val = d.String()
		}
		entries[i].Value = val
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// DescribeKey returns the description of key, or ErrNoDefault.
func DescribeKey(key string) (string, error) {
	if e := GetDefault(key); e != nil {
		return e.Description, nil
	}
	return "", fmt.Errorf("%w for key %q", ErrNoDefault, key)
}
