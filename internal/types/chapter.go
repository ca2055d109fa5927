// Package types provides shared types used across multiple packages.
// This package has no dependencies on other redpen packages to avoid import cycles.
package types

import "strings"

// ChapterStatus is the processing state of a single chapter.
type ChapterStatus string

const (
	// StatusNotStarted indicates the chapter has never been queued, or was reset for retry.
	StatusNotStarted ChapterStatus = "not_started"
	// StatusQueued indicates the chapter sits in a batch waiting for a worker.
	StatusQueued ChapterStatus = "queued"
	// StatusInProgress indicates a worker owns the chapter's batch.
	StatusInProgress ChapterStatus = "in_progress"
	// StatusCompleted indicates an edit result was produced and saved.
	StatusCompleted ChapterStatus = "completed"
	// StatusFailed indicates processing failed; the chapter carries an error message.
	StatusFailed ChapterStatus = "failed"
)

// ParseChapterStatus converts a string to a ChapterStatus.
// Returns false if the string is not a known status.
func ParseChapterStatus(s string) (ChapterStatus, bool) {
	switch ChapterStatus(s) {
	case StatusNotStarted, StatusQueued, StatusInProgress, StatusCompleted, StatusFailed:
		return ChapterStatus(s), true
	default:
		return "", false
	}
}

// Retryable reports whether a chapter in this status may be picked up by a new run.
func (s ChapterStatus) Retryable() bool {
	return s == StatusNotStarted || s == StatusFailed || s == ""
}

// TokenCounter estimates the token count of a block of text.
type TokenCounter interface {
	Estimate(text string) int
}

// Chapter is one chapter of a document, normalized into lines.
//
// Lines holds the text after blank-line normalization, which happens once when the
// chapter is extracted. Raw keeps the original formatting for reassembly.
type Chapter struct {
	ID     string        `json:"id"`
	Number int           `json:"chapter_number"`
	Title  string        `json:"title,omitempty"`
	Lines  []string      `json:"original_lines"`
	Raw    string        `json:"-"`
	Tokens int           `json:"token_count"`
	Status ChapterStatus `json:"processing_status"`
}

// Text returns the normalized chapter text.
func (c *Chapter) Text() string {
	return strings.Join(c.Lines, "\n")
}

// WordCount returns the number of whitespace separated words in the chapter.
func (c *Chapter) WordCount() int {
	n := 0
	for _, line := range c.Lines {
		n += len(strings.Fields(line))
	}
	return n
}

// EnsureTokens memoizes the chapter's token count using counter.
func (c *Chapter) EnsureTokens(counter TokenCounter) int {
	if c.Tokens == 0 && counter != nil && len(c.Lines) > 0 {
		c.Tokens = counter.Estimate(c.Text())
	}
	return c.Tokens
}
