package edits

import "fmt"

// ChapterRange is the block of batch-global line numbers one chapter occupies.
// End is inclusive; an empty chapter has End == Start-1.
type ChapterRange struct {
	ChapterID string
	Start     int
	End       int
}

// Len returns the number of lines in the range.
func (r ChapterRange) Len() int {
	return r.End - r.Start + 1
}

// LineMap maps the consecutive line numbering of a multi-chapter prompt back
// to each chapter's own numbering.
type LineMap struct {
	ranges []ChapterRange
	total  int
}

// Add appends a chapter with n lines and returns its range.
func (m *LineMap) Add(chapterID string, n int) ChapterRange {
	r := ChapterRange{ChapterID: chapterID, Start: m.total + 1, End: m.total + n}
	m.ranges = append(m.ranges, r)
	m.total += n
	return r
}

// Ranges returns the chapter ranges in batch order.
func (m *LineMap) Ranges() []ChapterRange {
	return append([]ChapterRange(nil), m.ranges...)
}

// Total returns the number of lines across all chapters.
func (m *LineMap) Total() int {
	return m.total
}

// Locate returns the chapter range containing global line n.
func (m *LineMap) Locate(n int) (ChapterRange, bool) {
	for _, r := range m.ranges {
		if n >= r.Start && n <= r.End {
			return r, true
		}
	}
	return ChapterRange{}, false
}

// RouteIssue is an operation that could not be assigned to a chapter.
// ChapterID names the chapter holding the operation's first line, or is
// empty when no chapter does.
type RouteIssue struct {
	ChapterID string
	ApplyIssue
}

// Route splits batch-global operations into chapter-local operation lists,
// preserving stream order within each chapter.
//
// An insert after the last line of a chapter belongs to that chapter; an
// insert after line 0 belongs to the first chapter.
func (m *LineMap) Route(ops []Operation) (map[string][]Operation, []RouteIssue) {
	routed := make(map[string][]Operation, len(m.ranges))
	var issues []RouteIssue

	for i, op := range ops {
		first, last := op.Span()

		var (
			r  ChapterRange
			ok bool
		)
		if op.Kind == KindInsert && first == 0 && len(m.ranges) > 0 {
			r, ok = m.ranges[0], true
		} else {
			r, ok = m.Locate(first)
		}
		if !ok {
			issues = append(issues, RouteIssue{ApplyIssue: ApplyIssue{
				Kind:   IssueOutOfRange,
				Index:  i,
				Op:     op,
				Detail: fmt.Sprintf("line %d is outside the batch (1-%d)", first, m.total),
			}})
			continue
		}
		if last > r.End {
			issues = append(issues, RouteIssue{ChapterID: r.ChapterID, ApplyIssue: ApplyIssue{
				Kind:   IssueCrossesChapter,
				Index:  i,
				Op:     op,
				Detail: fmt.Sprintf("lines %d-%d cross the end of the chapter at line %d", first, last, r.End),
			}})
			continue
		}
		routed[r.ChapterID] = append(routed[r.ChapterID], op.Shift(1-r.Start))
	}
	return routed, issues
}
