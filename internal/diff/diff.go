// Package diff aligns original and edited chapter lines for review.
package diff

import (
	"fmt"
	"slices"
)

// Kind classifies one aligned row.
type Kind uint8

const (
	Unchanged Kind = iota
	Replaced
	Inserted
	Deleted
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Replaced:
		return "replaced"
	case Inserted:
		return "inserted"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unchanged":
		*k = Unchanged
	case "replaced":
		*k = Replaced
	case "inserted":
		*k = Inserted
	case "deleted":
		*k = Deleted
	default:
		return fmt.Errorf("unknown diff kind %q", text)
	}
	return nil
}

// Line is one row of the alignment. Line numbers are 1-based; OldNum is 0
// for inserted rows and NewNum is 0 for deleted rows.
type Line struct {
	Kind   Kind   `json:"kind"`
	OldNum int    `json:"old_num,omitempty"`
	NewNum int    `json:"new_num,omitempty"`
	Old    string `json:"old,omitempty"`
	New    string `json:"new,omitempty"`
}

// Stats counts rows by kind.
type Stats struct {
	Unchanged int `json:"unchanged"`
	Replaced  int `json:"replaced"`
	Inserted  int `json:"inserted"`
	Deleted   int `json:"deleted"`
}

// Changed returns the number of rows that are not unchanged.
func (s Stats) Changed() int {
	return s.Replaced + s.Inserted + s.Deleted
}

// Record is the full alignment of two line sequences.
type Record struct {
	Lines []Line `json:"lines"`
	Stats Stats  `json:"stats"`
}

// HasChanges reports whether the sequences differ.
func (r *Record) HasChanges() bool {
	return r.Stats.Changed() > 0
}

type match struct{ old, new int }

// Compute aligns original and edited using a minimal edit script (longest
// common subsequence). Unmatched lines between two matches are paired in
// place as replaced rows; any surplus becomes deleted or inserted rows.
//
// Compute(a, b) and Compute(b, a) mirror each other: inserted and deleted
// counts swap and replaced counts agree.
func Compute(original, edited []string) *Record {
	var matches []match
	if slices.Compare(original, edited) > 0 {
		// Always align in one canonical direction so the result is symmetric.
		matches = align(edited, original)
		for i := range matches {
			matches[i].old, matches[i].new = matches[i].new, matches[i].old
		}
	} else {
		matches = align(original, edited)
	}
	return build(original, edited, matches)
}

// align returns matched index pairs in increasing order.
func align(a, b []string) []match {
	// Common prefix and suffix are matched directly.
	pre := 0
	for pre < len(a) && pre < len(b) && a[pre] == b[pre] {
		pre++
	}
	suf := 0
	for suf < len(a)-pre && suf < len(b)-pre && a[len(a)-1-suf] == b[len(b)-1-suf] {
		suf++
	}

	matches := make([]match, 0, pre+suf)
	for i := 0; i < pre; i++ {
		matches = append(matches, match{i, i})
	}
	for _, m := range myers(a[pre:len(a)-suf], b[pre:len(b)-suf]) {
		matches = append(matches, match{m.old + pre, m.new + pre})
	}
	for i := suf; i > 0; i-- {
		matches = append(matches, match{len(a) - i, len(b) - i})
	}
	return matches
}

// myers implements the O(ND) greedy shortest edit script. trace[d] keeps the
// furthest-reaching x for diagonals -d..d after round d.
func myers(a, b []string) []match {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}

	limit := n + m
	off := limit
	v := make([]int, 2*limit+2)
	var trace [][]int

	final := -1
search:
	for d := 0; d <= limit; d++ {
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[off+k-1] < v[off+k+1]) {
				x = v[off+k+1]
			} else {
				x = v[off+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[off+k] = x
			if x >= n && y >= m {
				final = d
				break search
			}
		}
		trace = append(trace, slices.Clone(v[off-d:off+d+1]))
	}

	var matches []match
	x, y := n, m
	for d := final; d > 0; d-- {
		prev := trace[d-1]
		at := func(k int) int { return prev[k+d-1] }

		k := x - y
		var prevK int
		if k == -d || (k != d && at(k-1) < at(k+1)) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := at(prevK)
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			matches = append(matches, match{x, y})
		}
		x, y = prevX, prevY
	}
	for x > 0 && y > 0 {
		x--
		y--
		matches = append(matches, match{x, y})
	}

	slices.Reverse(matches)
	return matches
}

func build(original, edited []string, matches []match) *Record {
	rec := &Record{Lines: make([]Line, 0, max(len(original), len(edited)))}

	gap := func(oldFrom, oldTo, newFrom, newTo int) {
		i, j := oldFrom, newFrom
		for i < oldTo && j < newTo {
			rec.add(Line{Kind: Replaced, OldNum: i + 1, NewNum: j + 1, Old: original[i], New: edited[j]})
			i++
			j++
		}
		for ; i < oldTo; i++ {
			rec.add(Line{Kind: Deleted, OldNum: i + 1, Old: original[i]})
		}
		for ; j < newTo; j++ {
			rec.add(Line{Kind: Inserted, NewNum: j + 1, New: edited[j]})
		}
	}

	i, j := 0, 0
	for _, m := range matches {
		gap(i, m.old, j, m.new)
		rec.add(Line{Kind: Unchanged, OldNum: m.old + 1, NewNum: m.new + 1, Old: original[m.old], New: edited[m.new]})
		i, j = m.old+1, m.new+1
	}
	gap(i, len(original), j, len(edited))
	return rec
}

func (r *Record) add(l Line) {
	r.Lines = append(r.Lines, l)
	switch l.Kind {
	case Unchanged:
		r.Stats.Unchanged++
	case Replaced:
		r.Stats.Replaced++
	case Inserted:
		r.Stats.Inserted++
	case Deleted:
		r.Stats.Deleted++
	}
}
