package copyedit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackzampolin/redpen/internal/edits"
	"github.com/jackzampolin/redpen/internal/types"
)

// UserHeader opens the numbered section of every user message.
const UserHeader = "CHAPTER TO EDIT (with line numbers):"

const (
	previousHeader = "PREVIOUS CHAPTER (for context only, do not edit):"
	nextHeader     = "NEXT CHAPTER (for context only, do not edit):"
)

// Context holds the neighbouring chapters shown to the backend around a batch.
// Only the first Lines lines of each are included; zero disables context.
type Context struct {
	Previous *types.Chapter
	Next     *types.Chapter
	Lines    int
}

// BuildBatch renders the chapters of one batch as a single numbered user
// message. Lines are numbered consecutively across the whole batch; chapter
// headers are not numbered. The returned LineMap translates the numbers the
// backend answers with back to chapter-local lines.
func BuildBatch(chapters []*types.Chapter) (string, *edits.LineMap) {
	return BuildBatchWithContext(chapters, Context{})
}

// BuildBatchWithContext is BuildBatch with unnumbered excerpts of the
// neighbouring chapters placed before and after the numbered section.
func BuildBatchWithContext(chapters []*types.Chapter, cc Context) (string, *edits.LineMap) {
	lm := &edits.LineMap{}
	var b strings.Builder
	if cc.Lines > 0 && cc.Previous != nil {
		writeExcerpt(&b, previousHeader, cc.Previous, cc.Lines)
		b.WriteString("\n")
	}
	b.WriteString(UserHeader)
	b.WriteString("\n")

	for _, ch := range chapters {
		r := lm.Add(ch.ID, len(ch.Lines))
		b.WriteString("\n")
		b.WriteString(chapterHeader(ch))
		b.WriteString("\n")
		for i, line := range ch.Lines {
			b.WriteString(strconv.Itoa(r.Start + i))
			b.WriteString(": ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if cc.Lines > 0 && cc.Next != nil {
		b.WriteString("\n")
		writeExcerpt(&b, nextHeader, cc.Next, cc.Lines)
	}
	return b.String(), lm
}

func writeExcerpt(b *strings.Builder, header string, ch *types.Chapter, n int) {
	b.WriteString(header)
	b.WriteString("\n")
	lines := ch.Lines
	if len(lines) > n {
		lines = lines[:n]
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(ch.Lines) > n {
		b.WriteString("...\n")
	}
}

func chapterHeader(ch *types.Chapter) string {
	if ch.Title == "" {
		return fmt.Sprintf("=== CHAPTER %d ===", ch.Number)
	}
	return fmt.Sprintf("=== CHAPTER %d: %s ===", ch.Number, ch.Title)
}
