package batch

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/jackzampolin/redpen/internal/types"
)

func chaptersWithTokens(tokens ...int) []*types.Chapter {
	out := make([]*types.Chapter, len(tokens))
	for i, n := range tokens {
		out[i] = &types.Chapter{
			ID:     fmt.Sprintf("ch-%d", i+1),
			Number: i + 1,
			Tokens: n,
		}
	}
	return out
}

func batchNumbers(p *Plan) [][]int {
	var out [][]int
	for _, b := range p.Batches {
		var nums []int
		for _, ch := range b.Chapters {
			nums = append(nums, ch.Number)
		}
		out = append(out, nums)
	}
	return out
}

func TestBudget(t *testing.T) {
	tests := []struct {
		name                string
		max, system, margin int
		want                int
	}{
		{"typical", 4096, 600, 500, 2996},
		{"exact", 1000, 500, 500, 0},
		{"negative floors at zero", 1000, 900, 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Budget(tt.max, tt.system, tt.margin); got != tt.want {
				t.Errorf("Budget() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []int
		budget   int
		want     [][]int
		warnings int
	}{
		{
			name:   "greedy grouping",
			tokens: []int{100, 50, 80},
			budget: 140,
			want:   [][]int{{1}, {2, 3}},
		},
		{
			name:   "all fit",
			tokens: []int{10, 20, 30},
			budget: 100,
			want:   [][]int{{1, 2, 3}},
		},
		{
			name:   "exact fit stays together",
			tokens: []int{70, 70},
			budget: 140,
			want:   [][]int{{1, 2}},
		},
		{
			name:     "oversized chapter alone",
			tokens:   []int{50, 200, 50},
			budget:   100,
			want:     [][]int{{1}, {2}, {3}},
			warnings: 1,
		},
		{
			name:     "oversized first",
			tokens:   []int{500, 10, 10},
			budget:   100,
			want:     [][]int{{1}, {2, 3}},
			warnings: 1,
		},
		{
			name:   "zero token chapters",
			tokens: []int{0, 0, 100},
			budget: 100,
			want:   [][]int{{1, 2, 3}},
		},
		{
			name:   "empty input",
			tokens: nil,
			budget: 100,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Make(chaptersWithTokens(tt.tokens...), tt.budget)
			if err != nil {
				t.Fatalf("Make() error = %v", err)
			}
			if got := batchNumbers(plan); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("batches = %v, want %v", got, tt.want)
			}
			if len(plan.Warnings) != tt.warnings {
				t.Errorf("warnings = %d, want %d", len(plan.Warnings), tt.warnings)
			}
			for i, b := range plan.Batches {
				if b.Index != i {
					t.Errorf("batch %d has Index %d", i, b.Index)
				}
			}
		})
	}
}

func TestMakeInvariants(t *testing.T) {
	tokens := []int{120, 30, 45, 300, 10, 10, 10, 90, 95, 5, 0, 60}
	chapters := chaptersWithTokens(tokens...)
	budget := 150

	plan, err := Make(chapters, budget)
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	// Exact, ordered partition.
	var flat []*types.Chapter
	for _, b := range plan.Batches {
		if len(b.Chapters) == 0 {
			t.Fatalf("batch %d is empty", b.Index)
		}
		flat = append(flat, b.Chapters...)
	}
	if !reflect.DeepEqual(flat, chapters) {
		t.Fatal("batches are not an ordered partition of the input")
	}

	// Budget respected unless the batch is a single oversized chapter.
	for _, b := range plan.Batches {
		if b.Tokens() > budget && len(b.Chapters) != 1 {
			t.Errorf("%s exceeds budget with %d chapters", b, len(b.Chapters))
		}
	}

	if plan.Chapters() != len(chapters) {
		t.Errorf("Chapters() = %d, want %d", plan.Chapters(), len(chapters))
	}
	if len(plan.Warnings) != 1 || plan.Warnings[0].Chapter != 4 {
		t.Errorf("warnings = %+v, want one for chapter 4", plan.Warnings)
	}
}

func TestMakeInvalidBudget(t *testing.T) {
	for _, budget := range []int{0, -10} {
		_, err := Make(chaptersWithTokens(10), budget)
		if !errors.Is(err, ErrInvalidBudget) {
			t.Errorf("Make(budget=%d) error = %v, want ErrInvalidBudget", budget, err)
		}
	}
}

func TestMakeMaxChapters(t *testing.T) {
	plan, err := MakeWithOptions(chaptersWithTokens(1, 1, 1, 1, 1), 1000, Options{MaxChapters: 2})
	if err != nil {
		t.Fatalf("MakeWithOptions() error = %v", err)
	}
	want := [][]int{{1, 2}, {3, 4}, {5}}
	if got := batchNumbers(plan); !reflect.DeepEqual(got, want) {
		t.Errorf("batches = %v, want %v", got, want)
	}
}

func TestBatchString(t *testing.T) {
	b := &Batch{Index: 2, Chapters: chaptersWithTokens(10, 20)}
	if got, want := b.String(), "batch 2 [ch 1-2, 30 tokens]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := b.ChapterIDs(); !reflect.DeepEqual(got, []string{"ch-1", "ch-2"}) {
		t.Errorf("ChapterIDs() = %v", got)
	}
}
