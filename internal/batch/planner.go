package batch

import (
	"fmt"

	"github.com/jackzampolin/redpen/internal/types"
)

// Options tune planning beyond the token budget.
type Options struct {
	// MaxChapters caps the number of chapters in a batch. Zero means no cap.
	MaxChapters int
}

// Budget returns the tokens available for chapter text:
// maxContext - systemPromptTokens - safetyMargin, floored at zero.
func Budget(maxContext, systemPromptTokens, safetyMargin int) int {
	b := maxContext - systemPromptTokens - safetyMargin
	if b < 0 {
		return 0
	}
	return b
}

// Make partitions chapters into ordered batches whose token sums fit budget.
// Chapters must already carry their token counts.
func Make(chapters []*types.Chapter, budget int) (*Plan, error) {
	return MakeWithOptions(chapters, budget, Options{})
}

// MakeWithOptions is Make with extra limits.
//
// Grouping is greedy: a batch is closed as soon as the next chapter would push
// it over budget (or over MaxChapters). A chapter that alone exceeds the budget
// forms its own batch and is reported in Plan.Warnings.
func MakeWithOptions(chapters []*types.Chapter, budget int, opts Options) (*Plan, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, budget)
	}

	plan := &Plan{Budget: budget}
	var current *Batch
	running := 0

	closeCurrent := func() {
		if current != nil && len(current.Chapters) > 0 {
			plan.Batches = append(plan.Batches, current)
		}
		current = nil
		running = 0
	}

	for _, ch := range chapters {
		if ch == nil {
			continue
		}
		tokens := ch.Tokens
		if tokens < 0 {
			tokens = 0
		}

		if tokens > budget {
			closeCurrent()
			idx := len(plan.Batches)
			plan.Batches = append(plan.Batches, &Batch{Index: idx, Chapters: []*types.Chapter{ch}})
			plan.Warnings = append(plan.Warnings, BudgetExceeded{
				ChapterID:  ch.ID,
				Chapter:    ch.Number,
				Tokens:     tokens,
				Budget:     budget,
				BatchIndex: idx,
			})
			continue
		}

		full := opts.MaxChapters > 0 && current != nil && len(current.Chapters) >= opts.MaxChapters
		if current != nil && (running+tokens > budget || full) {
			closeCurrent()
		}
		if current == nil {
			current = &Batch{Index: len(plan.Batches)}
		}
		current.Chapters = append(current.Chapters, ch)
		running += tokens
	}
	closeCurrent()

	return plan, nil
}
