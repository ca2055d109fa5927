// Package copyedit holds the copy-editing system prompts and builds the
// numbered user message for a batch of chapters.
package copyedit

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackzampolin/redpen/internal/prompts"
)

//go:embed light.tmpl
var lightPrompt string

//go:embed moderate.tmpl
var moderatePrompt string

//go:embed heavy.tmpl
var heavyPrompt string

// Style selects how aggressively the backend is asked to edit.
type Style string

const (
	StyleLight    Style = "light"
	StyleModerate Style = "moderate"
	StyleHeavy    Style = "heavy"
)

// DefaultStyle is used when no style is configured.
const DefaultStyle = StyleModerate

// Styles lists every supported style.
var Styles = []Style{StyleLight, StyleModerate, StyleHeavy}

// ParseStyle converts a configured style name to a Style.
// The empty string and "default" select DefaultStyle.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultStyle, nil
	case string(StyleLight):
		return StyleLight, nil
	case string(StyleModerate):
		return StyleModerate, nil
	case string(StyleHeavy):
		return StyleHeavy, nil
	default:
		return "", fmt.Errorf("unknown editing style %q (want light, moderate or heavy)", s)
	}
}

// PromptKey is the hierarchical key of the system prompt for a style.
func PromptKey(s Style) string {
	return "copyedit." + string(s) + ".system"
}

// SystemPrompt returns the embedded system prompt for a style.
// Unknown styles get the default prompt.
func SystemPrompt(s Style) string {
	switch s {
	case StyleLight:
		return lightPrompt
	case StyleHeavy:
		return heavyPrompt
	default:
		return moderatePrompt
	}
}

// RegisterPrompts registers the copy-editing prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey(StyleLight),
		Text:        lightPrompt,
		Description: "Proofreading pass - obvious typos and clear grammar mistakes only",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey(StyleModerate),
		Text:        moderatePrompt,
		Description: "Copy edit - spelling, grammar, flow and consistency while preserving voice",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey(StyleHeavy),
		Text:        heavyPrompt,
		Description: "Comprehensive edit - structure, word choice and pacing",
	})
}
