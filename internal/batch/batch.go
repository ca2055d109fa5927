// Package batch groups consecutive chapters into batches that fit a token budget.
package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/redpen/internal/types"
)

// ErrInvalidBudget is returned when the token budget is not positive.
var ErrInvalidBudget = errors.New("token budget must be positive")

// Batch is an ordered group of consecutive chapters sent to the backend together.
type Batch struct {
	// Index is the batch's position in the plan, starting at 0.
	Index    int
	Chapters []*types.Chapter
}

// Tokens returns the sum of the chapters' token counts.
func (b *Batch) Tokens() int {
	total := 0
	for _, ch := range b.Chapters {
		total += ch.Tokens
	}
	return total
}

// ChapterIDs returns the chapter ids in batch order.
func (b *Batch) ChapterIDs() []string {
	ids := make([]string, len(b.Chapters))
	for i, ch := range b.Chapters {
		ids[i] = ch.ID
	}
	return ids
}

// String renders the batch as "batch 2 [ch 4-6, 1830 tokens]".
func (b *Batch) String() string {
	if len(b.Chapters) == 0 {
		return fmt.Sprintf("batch %d [empty]", b.Index)
	}
	first := b.Chapters[0].Number
	last := b.Chapters[len(b.Chapters)-1].Number
	if first == last {
		return fmt.Sprintf("batch %d [ch %d, %d tokens]", b.Index, first, b.Tokens())
	}
	return fmt.Sprintf("batch %d [ch %d-%d, %d tokens]", b.Index, first, last, b.Tokens())
}

// BudgetExceeded is a warning: a single chapter is larger than the budget and
// was placed alone in an oversized batch.
type BudgetExceeded struct {
	ChapterID  string
	Chapter    int
	Tokens     int
	Budget     int
	BatchIndex int
}

func (w BudgetExceeded) String() string {
	return fmt.Sprintf("chapter %d (%s) needs %d tokens, budget is %d; sent alone in batch %d",
		w.Chapter, w.ChapterID, w.Tokens, w.Budget, w.BatchIndex)
}

// Plan is the result of planning: batches in chapter order plus warnings.
type Plan struct {
	Budget   int
	Batches  []*Batch
	Warnings []BudgetExceeded
}

// Chapters returns the total number of chapters across all batches.
func (p *Plan) Chapters() int {
	n := 0
	for _, b := range p.Batches {
		n += len(b.Chapters)
	}
	return n
}

// Summary renders one line per batch.
func (p *Plan) Summary() string {
	var sb strings.Builder
	for _, b := range p.Batches {
		sb.WriteString(b.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
