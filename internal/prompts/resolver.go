package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrPromptNotFound is returned when no embedded prompt is registered under a key.
var ErrPromptNotFound = errors.New("prompt not found")

// Resolver resolves prompts with project-level overrides.
// Resolution order: override file > embedded default
type Resolver struct {
	overrideDir string
	embedded    map[string]EmbeddedPrompt
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewResolver creates a new prompt resolver. An empty overrideDir disables overrides.
func NewResolver(overrideDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		overrideDir: overrideDir,
		embedded:    make(map[string]EmbeddedPrompt),
		logger:      logger,
	}
}

// Register registers an embedded prompt.
// This should be called during initialization by each prompt package.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// OverridePath returns the file that would shadow the prompt registered under key.
func (r *Resolver) OverridePath(key string) string {
	if r.overrideDir == "" {
		return ""
	}
	return filepath.Join(r.overrideDir, key+".tmpl")
}

// Resolve returns the override for key if one exists, otherwise the embedded default.
// Override files are re-read on every call so edits take effect on the next batch.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	embedded, ok := r.embedded[key]
	r.mu.RUnlock()

	if path := r.OverridePath(key); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			text := string(data)
			return &ResolvedPrompt{
				Key:        key,
				Text:       text,
				Variables:  ExtractVariables(text),
				IsOverride: true,
				Hash:       HashText(text),
				Source:     path,
			}, nil
		case !errors.Is(err, fs.ErrNotExist):
			r.logger.Warn("failed to read prompt override", "key", key, "path", path, "error", err)
			// Fall through to embedded default
		}
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, key)
	}

	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// GetEmbedded returns the embedded default for a key (no override resolution).
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}
