// Package edits implements the compact edit language returned by the
// generation backend: parsing, formatting, routing across a batch and
// applying operations to line-numbered text.
//
// Wire format:
//
//	R∆line∆pattern⟹replacement   replace every occurrence of pattern on line
//	D∆line                       delete line
//	I∆line∆text                  insert text after line (0 = before the first line)
//	M∆start-end∆text             collapse lines start..end into text
//
// Operations are separated by ◊. A response of NO_EDITS_NEEDED means no
// operations. Line numbers are 1-based and always refer to the original text.
package edits

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved tokens of the wire format.
const (
	FieldSep      = "∆" // U+2206
	ReplaceArrow  = "⟹" // U+27F9
	OpSep         = "◊" // U+25CA
	NoEditsNeeded = "NO_EDITS_NEEDED"
)

// Kind is an operation opcode.
type Kind byte

const (
	KindReplace Kind = 'R'
	KindDelete  Kind = 'D'
	KindInsert  Kind = 'I'
	KindMerge   Kind = 'M'
)

func (k Kind) String() string {
	switch k {
	case KindReplace:
		return "replace"
	case KindDelete:
		return "delete"
	case KindInsert:
		return "insert"
	case KindMerge:
		return "merge"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Operation is a single edit. Which fields are meaningful depends on Kind:
//
//	Replace: Line, Pattern, Text (replacement)
//	Delete:  Line
//	Insert:  Line (insert after), Text
//	Merge:   Line (start), EndLine, Text
type Operation struct {
	Kind    Kind   `json:"kind"`
	Line    int    `json:"line"`
	EndLine int    `json:"end_line,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Replace returns a replace operation.
func Replace(line int, pattern, replacement string) Operation {
	return Operation{Kind: KindReplace, Line: line, Pattern: pattern, Text: replacement}
}

// Delete returns a delete operation.
func Delete(line int) Operation {
	return Operation{Kind: KindDelete, Line: line}
}

// Insert returns an operation inserting text after line.
func Insert(afterLine int, text string) Operation {
	return Operation{Kind: KindInsert, Line: afterLine, Text: text}
}

// Merge returns an operation collapsing start..end into text.
func Merge(start, end int, text string) Operation {
	return Operation{Kind: KindMerge, Line: start, EndLine: end, Text: text}
}

// Span returns the first and last original line the operation addresses.
// An insert after line 0 spans (0, 0).
func (op Operation) Span() (first, last int) {
	if op.Kind == KindMerge {
		return op.Line, op.EndLine
	}
	return op.Line, op.Line
}

// Shift returns a copy with all line numbers moved by delta.
func (op Operation) Shift(delta int) Operation {
	op.Line += delta
	if op.Kind == KindMerge {
		op.EndLine += delta
	}
	return op
}

// String renders the operation in wire format.
func (op Operation) String() string {
	var sb strings.Builder
	writeOp(&sb, op)
	return sb.String()
}

// Validate checks that the operation is well formed and can be written to
// the wire format without loss.
func (op Operation) Validate() error {
	switch op.Kind {
	case KindReplace:
		if op.Line < 1 {
			return fmt.Errorf("line %d: must be >= 1", op.Line)
		}
		if op.Pattern == "" {
			return fmt.Errorf("empty replace pattern")
		}
		if strings.Contains(op.Pattern, ReplaceArrow) {
			return fmt.Errorf("pattern contains %s", ReplaceArrow)
		}
		if err := checkField("pattern", op.Pattern); err != nil {
			return err
		}
		return checkField("replacement", op.Text)
	case KindDelete:
		if op.Line < 1 {
			return fmt.Errorf("line %d: must be >= 1", op.Line)
		}
		return nil
	case KindInsert:
		if op.Line < 0 {
			return fmt.Errorf("line %d: must be >= 0", op.Line)
		}
		if op.Text == "" {
			return fmt.Errorf("empty insert text")
		}
		return checkField("text", op.Text)
	case KindMerge:
		if op.Line < 1 {
			return fmt.Errorf("start line %d: must be >= 1", op.Line)
		}
		if op.EndLine < op.Line {
			return fmt.Errorf("merge range %d-%d: end before start", op.Line, op.EndLine)
		}
		if op.Text == "" {
			return fmt.Errorf("empty merge text")
		}
		return checkField("text", op.Text)
	default:
		return fmt.Errorf("unknown opcode %q", byte(op.Kind))
	}
}

func checkField(name, v string) error {
	if strings.Contains(v, OpSep) {
		return fmt.Errorf("%s contains %s", name, OpSep)
	}
	if strings.TrimSpace(v) != v {
		return fmt.Errorf("%s has surrounding whitespace", name)
	}
	return nil
}

func writeOp(sb *strings.Builder, op Operation) {
	sb.WriteByte(byte(op.Kind))
	sb.WriteString(FieldSep)
	sb.WriteString(strconv.Itoa(op.Line))
	switch op.Kind {
	case KindReplace:
		sb.WriteString(FieldSep)
		sb.WriteString(op.Pattern)
		sb.WriteString(ReplaceArrow)
		sb.WriteString(op.Text)
	case KindInsert:
		sb.WriteString(FieldSep)
		sb.WriteString(op.Text)
	case KindMerge:
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(op.EndLine))
		sb.WriteString(FieldSep)
		sb.WriteString(op.Text)
	}
}

// Format serializes operations to the wire format. An empty list is
// rendered as NO_EDITS_NEEDED.
func Format(ops []Operation) string {
	if len(ops) == 0 {
		return NoEditsNeeded
	}
	var sb strings.Builder
	for i, op := range ops {
		if i > 0 {
			sb.WriteString(OpSep)
		}
		writeOp(&sb, op)
	}
	return sb.String()
}
