package edits

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseError describes one operation that could not be parsed.
type ParseError struct {
	// Index is the 0-based position of the operation in the response.
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("operation %d: %s: %q", e.Index, e.Reason, truncate(e.Raw, 60))
}

// ParseErrors collects per-operation failures. Parse returns it alongside
// the operations that did parse.
type ParseErrors []*ParseError

func (es ParseErrors) Error() string {
	switch len(es) {
	case 0:
		return "no parse errors"
	case 1:
		return es[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", es[0].Error(), len(es)-1)
	}
}

// Parse reads a backend response into operations.
//
// Parsing fails per operation: malformed operations are reported in the
// returned ParseErrors while well-formed siblings are still returned. The
// error is nil when every operation parsed.
func Parse(raw string) ([]Operation, error) {
	return ParseWithLimit(raw, 0)
}

// ParseWithLimit is Parse that also rejects line numbers above maxLine.
// A maxLine of zero disables the check.
func ParseWithLimit(raw string, maxLine int) ([]Operation, error) {
	body := stripFences(strings.TrimSpace(raw))
	if body == "" || body == NoEditsNeeded {
		return nil, nil
	}

	var (
		ops  []Operation
		errs ParseErrors
	)
	index := 0
	for _, seg := range strings.Split(body, OpSep) {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == NoEditsNeeded {
			continue
		}
		op, err := parseOp(seg)
		if err == nil && maxLine > 0 {
			if _, last := op.Span(); last > maxLine {
				err = fmt.Errorf("line %d out of range (max %d)", last, maxLine)
			}
		}
		if err != nil {
			errs = append(errs, &ParseError{Index: index, Reason: err.Error(), Raw: seg})
		} else {
			ops = append(ops, op)
		}
		index++
	}

	if len(errs) > 0 {
		return ops, errs
	}
	return ops, nil
}

// parseOp scans a single trimmed operation.
func parseOp(seg string) (Operation, error) {
	r, size := utf8.DecodeRuneInString(seg)
	if r >= utf8.RuneSelf {
		return Operation{}, fmt.Errorf("unknown opcode %q", r)
	}
	kind := Kind(r)
	switch kind {
	case KindReplace, KindDelete, KindInsert, KindMerge:
	default:
		return Operation{}, fmt.Errorf("unknown opcode %q", r)
	}
	rest, ok := strings.CutPrefix(seg[size:], FieldSep)
	if !ok {
		return Operation{}, fmt.Errorf("expected %s after opcode", FieldSep)
	}

	var op Operation
	switch kind {
	case KindReplace:
		lineField, body, ok := strings.Cut(rest, FieldSep)
		if !ok {
			return Operation{}, fmt.Errorf("missing pattern field")
		}
		line, err := parseLine(lineField)
		if err != nil {
			return Operation{}, err
		}
		pattern, replacement, ok := strings.Cut(body, ReplaceArrow)
		if !ok {
			return Operation{}, fmt.Errorf("missing %s in replace", ReplaceArrow)
		}
		op = Replace(line, strings.TrimSpace(pattern), strings.TrimSpace(replacement))

	case KindDelete:
		lineField, tail, _ := strings.Cut(rest, FieldSep)
		if strings.TrimSpace(tail) != "" {
			return Operation{}, fmt.Errorf("unexpected text after delete line")
		}
		line, err := parseLine(lineField)
		if err != nil {
			return Operation{}, err
		}
		op = Delete(line)

	case KindInsert:
		lineField, text, ok := strings.Cut(rest, FieldSep)
		if !ok {
			return Operation{}, fmt.Errorf("missing insert text")
		}
		line, err := parseLine(lineField)
		if err != nil {
			return Operation{}, err
		}
		op = Insert(line, strings.TrimSpace(text))

	case KindMerge:
		rangeField, text, ok := strings.Cut(rest, FieldSep)
		if !ok {
			return Operation{}, fmt.Errorf("missing merge text")
		}
		startField, endField, ok := strings.Cut(rangeField, "-")
		if !ok {
			return Operation{}, fmt.Errorf("merge range %q: expected start-end", strings.TrimSpace(rangeField))
		}
		start, err := parseLine(startField)
		if err != nil {
			return Operation{}, err
		}
		end, err := parseLine(endField)
		if err != nil {
			return Operation{}, err
		}
		op = Merge(start, end, strings.TrimSpace(text))
	}

	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// parseLine accepts only ASCII digits, so signs and spaces inside the
// number are rejected.
func parseLine(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing line number")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid line number %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid line number %q: %w", s, err)
	}
	return n, nil
}

// stripFences removes a surrounding markdown code fence, which some models
// add despite instructions.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
