package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultEntries(t *testing.T) {
	entries := DefaultEntries()

	if len(entries) == 0 {
		t.Fatal("DefaultEntries() returned empty slice")
	}

	// Verify required keys exist
	requiredKeys := []string{
		"llm.base_url",
		"llm.api_key",
		"llm.model",
		"llm.max_context_tokens",
		"processing.workers",
		"processing.safety_margin",
		"processing.style",
		"storage.backend",
		"metrics.addr",
	}

	keys := make(map[string]bool)
	for _, e := range entries {
		if keys[e.Key] {
			t.Errorf("duplicate key %s", e.Key)
		}
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("key %s has no description", e.Key)
		}
	}

	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("processing.style")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != "moderate" {
			t.Errorf("GetDefault() Value = %v, want %q", entry.Value, "moderate")
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		entry := GetDefault("does.not.exist")
		if entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}

func TestDescribeKey(t *testing.T) {
	if _, err := DescribeKey("llm.model"); err != nil {
		t.Errorf("DescribeKey(llm.model) error = %v", err)
	}
	if _, err := DescribeKey("nope"); !errors.Is(err, ErrNoDefault) {
		t.Errorf("DescribeKey(nope) error = %v, want ErrNoDefault", err)
	}
}

func TestEffective(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("llm.model", "override")

	entries := Effective(v)
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key > entries[i].Key {
			t.Fatalf("entries not sorted at %d: %s > %s", i, entries[i-1].Key, entries[i].Key)
		}
	}

	byKey := make(map[string]any)
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}
	if byKey["llm.model"] != "override" {
		t.Errorf("llm.model = %v, want override", byKey["llm.model"])
	}
	if byKey["processing.retry_base_delay"] != "1s" {
		t.Errorf("durations should render as strings, got %v", byKey["processing.retry_base_delay"])
	}
}
