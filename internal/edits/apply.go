package edits

import (
	"fmt"
	"slices"
	"strings"
)

// IssueKind classifies operations that were skipped or overridden.
type IssueKind string

const (
	IssueConflict        IssueKind = "conflict"
	IssueOutOfRange      IssueKind = "out_of_range"
	IssuePatternNotFound IssueKind = "pattern_not_found"
	IssueInvalid         IssueKind = "invalid"
	IssueCrossesChapter  IssueKind = "crosses_chapter"
)

// ApplyIssue records an operation that did not take effect as written.
type ApplyIssue struct {
	Kind IssueKind `json:"kind"`
	// Index is the operation's position in the list passed to Apply.
	Index  int       `json:"index"`
	Op     Operation `json:"op"`
	Detail string    `json:"detail"`
}

func (i ApplyIssue) String() string {
	return fmt.Sprintf("%s: op %d (%s): %s", i.Kind, i.Index, i.Op, i.Detail)
}

// Counts tallies operations that took effect.
type Counts struct {
	Replacements int `json:"replacements"`
	Insertions   int `json:"insertions"`
	Deletions    int `json:"deletions"`
	Merges       int `json:"merges"`
}

// Total returns the sum of all counts.
func (c Counts) Total() int {
	return c.Replacements + c.Insertions + c.Deletions + c.Merges
}

// Result is the outcome of applying operations to a chapter.
// It is not modified after Apply returns.
type Result struct {
	Original    []string     `json:"original"`
	Edited      []string     `json:"edited"`
	Applied     []Operation  `json:"applied"`
	Counts      Counts       `json:"counts"`
	Issues      []ApplyIssue `json:"issues,omitempty"`
	ParseErrors ParseErrors  `json:"parse_errors,omitempty"`
}

// Option attaches context gathered before Apply runs.
type Option func(*Result)

// WithParseErrors attaches the parse errors of the response the operations came from.
func WithParseErrors(errs ParseErrors) Option {
	return func(r *Result) { r.ParseErrors = append(r.ParseErrors, errs...) }
}

// WithIssues attaches issues found before Apply, such as routing failures.
func WithIssues(issues ...ApplyIssue) Option {
	return func(r *Result) { r.Issues = append(r.Issues, issues...) }
}

// lineState tracks one original line while its operations are evaluated.
type lineState struct {
	content  string
	present  bool
	merged   bool
	replaces []int // effective replace ops since the content was last reset
	deleteOp int   // -1 unless a delete currently decides the line's fate
}

// Apply produces the edited text without modifying original.
//
// Every line number refers to the original numbering. Conflicts resolve as:
//   - Replace and Delete on the same line: the later operation wins; Replaces
//     compose in stream order.
//   - Merge s..e absorbs lines s+1..e. Replace and Delete addressed to them are
//     dropped, as are Inserts after lines s..e-1. An Insert after e follows the
//     merged block.
//   - Overlapping Merges: the later one wins.
//   - On the anchor line s the Merge sets the content; later Replaces apply to
//     the merged text and a later Delete removes it.
//
// Dropped operations are reported in Result.Issues.
func Apply(original []string, ops []Operation, opts ...Option) *Result {
	n := len(original)
	res := &Result{Original: slices.Clone(original)}
	for _, opt := range opts {
		opt(res)
	}

	valid := make([]bool, len(ops))
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			res.issue(IssueInvalid, i, op, err.Error())
			continue
		}
		if first, last := op.Span(); last > n || (first < 1 && op.Kind != KindInsert) {
			res.issue(IssueOutOfRange, i, op, fmt.Sprintf("chapter has %d lines", n))
			continue
		}
		valid[i] = true
	}

	// Resolve merges first: a later overlapping merge evicts earlier ones.
	var merges []int
	for i, op := range ops {
		if !valid[i] || op.Kind != KindMerge {
			continue
		}
		kept := merges[:0]
		for _, j := range merges {
			if ops[j].Line <= op.EndLine && op.Line <= ops[j].EndLine {
				res.issue(IssueConflict, j, ops[j], fmt.Sprintf("overlaps later merge (op %d)", i))
				continue
			}
			kept = append(kept, j)
		}
		merges = append(kept, i)
	}
	absorbedBy := make([]int, n+1) // merge op index + 1, 0 when not absorbed
	anchorOf := make([]int, n+1)
	for _, j := range merges {
		m := ops[j]
		anchorOf[m.Line] = j + 1
		for l := m.Line + 1; l <= m.EndLine; l++ {
			absorbedBy[l] = j + 1
		}
	}

	lines := make([]lineState, n+1)
	for l := 1; l <= n; l++ {
		lines[l] = lineState{content: original[l-1], present: true, deleteOp: -1}
	}
	inserts := make([][]int, n+1)
	effective := make([]bool, len(ops))

	for i, op := range ops {
		if !valid[i] {
			continue
		}
		switch op.Kind {
		case KindInsert:
			if m := insideMerge(op.Line, ops, absorbedBy, anchorOf); m >= 0 {
				res.issue(IssueConflict, i, op, fmt.Sprintf("insert inside merged lines (op %d)", m))
				continue
			}
			inserts[op.Line] = append(inserts[op.Line], i)

		case KindMerge:
			if anchorOf[op.Line] != i+1 {
				continue // evicted above
			}
			ls := &lines[op.Line]
			if len(ls.replaces) > 0 || ls.deleteOp >= 0 {
				res.issue(IssueConflict, i, op, fmt.Sprintf("merge overrides earlier edits to line %d", op.Line))
			}
			ls.content, ls.present, ls.merged = op.Text, true, true
			ls.replaces, ls.deleteOp = nil, -1

		case KindReplace, KindDelete:
			if m := absorbedBy[op.Line]; m > 0 {
				res.issue(IssueConflict, i, op, fmt.Sprintf("line %d is absorbed by merge (op %d)", op.Line, m-1))
				continue
			}
			ls := &lines[op.Line]
			if op.Kind == KindDelete {
				if ls.merged {
					res.issue(IssueConflict, i, op, fmt.Sprintf("delete removes merged text at line %d", op.Line))
				} else if len(ls.replaces) > 0 {
					res.issue(IssueConflict, i, op, fmt.Sprintf("delete overrides earlier replace on line %d", op.Line))
				}
				ls.present, ls.deleteOp = false, i
				continue
			}
			if !strings.Contains(ls.content, op.Pattern) {
				res.issue(IssuePatternNotFound, i, op, fmt.Sprintf("%q not found on line %d", op.Pattern, op.Line))
				continue
			}
			if ls.deleteOp >= 0 {
				res.issue(IssueConflict, ls.deleteOp, ops[ls.deleteOp], fmt.Sprintf("later replace (op %d) restores line %d", i, op.Line))
			}
			ls.content = strings.ReplaceAll(ls.content, op.Pattern, op.Text)
			ls.present, ls.deleteOp = true, -1
			ls.replaces = append(ls.replaces, i)
		}
	}

	for _, j := range merges {
		effective[j] = true
		res.Counts.Merges++
	}
	edited := make([]string, 0, n)
	emitInserts := func(after int) {
		for _, i := range inserts[after] {
			edited = append(edited, ops[i].Text)
			effective[i] = true
			res.Counts.Insertions++
		}
	}
	emitInserts(0)
	for l := 1; l <= n; l++ {
		ls := lines[l]
		if absorbedBy[l] == 0 {
			if ls.present {
				edited = append(edited, ls.content)
				for _, i := range ls.replaces {
					effective[i] = true
				}
				res.Counts.Replacements += len(ls.replaces)
			} else if ls.deleteOp >= 0 {
				effective[ls.deleteOp] = true
				res.Counts.Deletions++
			}
		}
		emitInserts(l)
	}

	res.Edited = edited
	for i, op := range ops {
		if effective[i] {
			res.Applied = append(res.Applied, op)
		}
	}
	return res
}

// insideMerge returns the merge op index whose block would contain an insert
// after line, or -1.
func insideMerge(line int, ops []Operation, absorbedBy, anchorOf []int) int {
	if line == 0 {
		return -1
	}
	m := absorbedBy[line]
	if m == 0 {
		m = anchorOf[line]
	}
	if m == 0 || ops[m-1].EndLine == line {
		return -1
	}
	return m - 1
}

func (r *Result) issue(kind IssueKind, index int, op Operation, detail string) {
	r.Issues = append(r.Issues, ApplyIssue{Kind: kind, Index: index, Op: op, Detail: detail})
}

// Text returns the edited lines joined with newlines.
func (r *Result) Text() string {
	return strings.Join(r.Edited, "\n")
}
