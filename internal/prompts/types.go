// Package prompts provides prompt management with embedded defaults and
// project-level overrides.
//
// Embedded .tmpl files in code are the source of truth for defaults. A project
// may shadow any of them by placing a file named <key>.tmpl in its prompt
// override directory.
//
// Resolution order for a project:
//  1. Override file in the project's prompt directory (if it exists)
//  2. Embedded default (from .tmpl files in code)
//
// Every resolved prompt carries the SHA256 hash of its text so saved edit
// results can be traced back to the exact prompt version that produced them.
package prompts

// ResolvedPrompt is the result of resolving a prompt for a project.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if read from the override directory
	Hash       string   `json:"hash"`
	Source     string   `json:"source,omitempty"` // override file path, empty for embedded
}

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: copyedit.moderate.system
	Text        string   // The prompt text
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}
