package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.APIKey != "${OPENAI_API_KEY}" {
		t.Errorf("expected OPENAI_API_KEY placeholder, got %q", cfg.LLM.APIKey)
	}
	if cfg.Processing.Workers != 5 {
		t.Errorf("expected 5 workers, got %d", cfg.Processing.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})

	t.Run("expands inside text", func(t *testing.T) {
		t.Setenv("TEST_HOST", "example.com")
		result := ResolveEnvVars("https://${TEST_HOST}/v1")
		if result != "https://example.com/v1" {
			t.Errorf("expected expanded url, got %s", result)
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		t.Setenv("TEST_REDPEN_KEY", "sk-test")
		configFile := writeConfig(t, `
llm:
  model: gpt-4o
  api_key: ${TEST_REDPEN_KEY}
  timeout: 90s
processing:
  workers: 3
  style: heavy
`)

		mgr, err := NewManager(configFile, "", nil)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.LLM.Model != "gpt-4o" {
			t.Errorf("expected gpt-4o, got %s", cfg.LLM.Model)
		}
		if cfg.LLM.APIKey != "sk-test" {
			t.Errorf("expected resolved api key, got %q", cfg.LLM.APIKey)
		}
		if cfg.LLM.Timeout != 90*time.Second {
			t.Errorf("expected 90s timeout, got %v", cfg.LLM.Timeout)
		}
		if cfg.Processing.Workers != 3 || cfg.Processing.Style != "heavy" {
			t.Errorf("processing = %+v", cfg.Processing)
		}
		// Unset keys keep their defaults.
		if cfg.Processing.SafetyMargin != 500 {
			t.Errorf("expected default safety margin, got %d", cfg.Processing.SafetyMargin)
		}
		if mgr.ConfigFile() != configFile {
			t.Errorf("ConfigFile() = %q, want %q", mgr.ConfigFile(), configFile)
		}
	})

	t.Run("defaults without a config file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		mgr, err := NewManager("", t.TempDir(), nil)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().LLM.MaxContextTokens; got != 4096 {
			t.Errorf("expected default max context 4096, got %d", got)
		}
		if mgr.ConfigFile() != "" {
			t.Errorf("ConfigFile() = %q, want empty", mgr.ConfigFile())
		}
	})

	t.Run("finds config in home dir", func(t *testing.T) {
		t.Chdir(t.TempDir())
		homeDir := filepath.Dir(writeConfig(t, "llm:\n  model: from-home\n"))
		mgr, err := NewManager("", homeDir, nil)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().LLM.Model; got != "from-home" {
			t.Errorf("expected model from home config, got %q", got)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("REDPEN_PROCESSING_WORKERS", "7")
		configFile := writeConfig(t, "processing:\n  workers: 2\n")
		mgr, err := NewManager(configFile, "", nil)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().Processing.Workers; got != 7 {
			t.Errorf("expected env override 7, got %d", got)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		configFile := writeConfig(t, "processing:\n  workers: 11\nstorage:\n  backend: postgres\n")
		_, err := NewManager(configFile, "", nil)
		if err == nil {
			t.Fatal("expected validation error")
		}
		for _, want := range []string{"processing.workers", "storage.backend"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q should mention %s", err, want)
			}
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		configFile := writeConfig(t, "llm: [unclosed\n")
		if _, err := NewManager(configFile, "", nil); err == nil {
			t.Fatal("expected read error")
		}
	})
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "llm:\n  model: a\n"), "", nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "llm:\n  model: a\n"), "", nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Call Get concurrently to verify no race conditions
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.LLM.Model
			}
			done <- struct{}{}
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "llm:\n  rps: 1\n")
	mgr, err := NewManager(configFile, "", nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var latest atomic.Value
	mgr.OnChange(func(cfg *Config) {
		latest.Store(cfg.LLM.RPS)
	})
	mgr.WatchConfig()

	// Give the watcher time to start
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(configFile, []byte("llm:\n  rps: 4\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := latest.Load().(float64); ok && v == 4 {
			if mgr.Get().LLM.RPS != 4 {
				t.Errorf("Get().LLM.RPS = %v after reload, want 4", mgr.Get().LLM.RPS)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("config change callback not invoked")
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	content := string(data)
	for _, want := range []string{"# redpen configuration", "llm:", "OPENAI_API_KEY", "retry_max_delay: 30s"} {
		if !strings.Contains(content, want) {
			t.Errorf("written config missing %q:\n%s", want, content)
		}
	}

	// The written file must load back to the defaults.
	mgr, err := NewManager(path, "", nil)
	if err != nil {
		t.Fatalf("NewManager() on written defaults error = %v", err)
	}
	cfg := mgr.Get()
	def := DefaultConfig()
	if cfg.Processing.RetryMaxDelay != def.Processing.RetryMaxDelay || cfg.LLM.Model != def.LLM.Model {
		t.Errorf("round trip mismatch: %+v", cfg)
	}
}
