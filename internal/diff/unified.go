package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// Unified renders a unified diff of the two line sequences. A negative
// context uses DefaultContext. Identical inputs render as "".
func Unified(original, edited []string, context int) (string, error) {
	if context < 0 {
		context = DefaultContext
	}
	ud := difflib.UnifiedDiff{
		A:        withNewlines(original),
		B:        withNewlines(edited),
		FromFile: "original",
		ToFile:   "edited",
		Context:  context,
	}
	out, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("render unified diff: %w", err)
	}
	return out, nil
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

// Hunk is a run of changed rows with surrounding context.
type Hunk struct {
	OldStart int    `json:"old_start"`
	OldLines int    `json:"old_lines"`
	NewStart int    `json:"new_start"`
	NewLines int    `json:"new_lines"`
	Lines    []Line `json:"lines"`
}

// Header renders the hunk range as "@@ -a,b +c,d @@".
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
}

// Hunks groups the changed rows of rec, keeping up to context unchanged rows
// on each side. Changes separated by at most 2*context unchanged rows share
// a hunk.
func Hunks(rec *Record, context int) []Hunk {
	if context < 0 {
		context = DefaultContext
	}
	rows := rec.Lines

	var hunks []Hunk
	for i := 0; i < len(rows); {
		if rows[i].Kind == Unchanged {
			i++
			continue
		}
		start := max(0, i-context)

		// Extend while the next change is close enough.
		end := i
		for j := i + 1; j < len(rows); j++ {
			if rows[j].Kind == Unchanged {
				continue
			}
			if j-end-1 > 2*context {
				break
			}
			end = j
		}
		stop := min(len(rows), end+context+1)

		hunks = append(hunks, newHunk(rows[start:stop]))
		i = stop
	}
	return hunks
}

func newHunk(rows []Line) Hunk {
	h := Hunk{Lines: rows}
	for _, r := range rows {
		if r.OldNum > 0 {
			if h.OldStart == 0 {
				h.OldStart = r.OldNum
			}
			h.OldLines++
		}
		if r.NewNum > 0 {
			if h.NewStart == 0 {
				h.NewStart = r.NewNum
			}
			h.NewLines++
		}
	}
	return h
}
