package edits

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Operation
	}{
		{
			name: "example stream",
			raw:  "R∆5∆said⟹exclaimed◊D∆7◊I∆10∆He paused, gathering his thoughts.",
			want: []Operation{
				Replace(5, "said", "exclaimed"),
				Delete(7),
				Insert(10, "He paused, gathering his thoughts."),
			},
		},
		{
			name: "merge",
			raw:  "M∆2-4∆The three lines, now one.",
			want: []Operation{Merge(2, 4, "The three lines, now one.")},
		},
		{
			name: "surrounding whitespace",
			raw:  "  \n R∆ 3 ∆ said ⟹ exclaimed \n◊\n D∆7 \n◊ I∆0∆Opening line.\n",
			want: []Operation{
				Replace(3, "said", "exclaimed"),
				Delete(7),
				Insert(0, "Opening line."),
			},
		},
		{
			name: "replacement may contain arrow",
			raw:  "R∆1∆a⟹b⟹c",
			want: []Operation{Replace(1, "a", "b⟹c")},
		},
		{
			name: "empty replacement removes text",
			raw:  "R∆1∆very ⟹",
			want: []Operation{Replace(1, "very", "")},
		},
		{
			name: "code fence",
			raw:  "```\nD∆2◊D∆3\n```",
			want: []Operation{Delete(2), Delete(3)},
		},
		{
			name: "trailing delimiter",
			raw:  "D∆2◊",
			want: []Operation{Delete(2)},
		},
		{
			name: "no edits needed",
			raw:  "NO_EDITS_NEEDED",
			want: nil,
		},
		{
			name: "empty",
			raw:  "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParse_PerOperationErrors(t *testing.T) {
	raw := strings.Join([]string{
		"R∆3∆said⟹exclaimed", // 0 ok
		"D∆x",                // 1 bad line number
		"Q∆1∆what",           // 2 unknown opcode
		"I∆4∆New line.",      // 3 ok
		"R∆5∆no arrow here",  // 4 missing arrow
		"M∆6∆merged",         // 5 missing range
		"M∆8-6∆backwards",    // 6 end before start
		"D∆-1",               // 7 sign rejected
		"R∆0∆a⟹b",            // 8 line 0 only valid for insert
		"D∆9",                // 9 ok
	}, OpSep)

	ops, err := Parse(raw)
	want := []Operation{
		Replace(3, "said", "exclaimed"),
		Insert(4, "New line."),
		Delete(9),
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("valid ops = %+v, want %+v", ops, want)
	}

	var perrs ParseErrors
	if !errors.As(err, &perrs) {
		t.Fatalf("error = %v, want ParseErrors", err)
	}
	var indices []int
	for _, pe := range perrs {
		indices = append(indices, pe.Index)
		if pe.Reason == "" || pe.Raw == "" {
			t.Errorf("parse error %d missing context: %+v", pe.Index, pe)
		}
	}
	if wantIdx := []int{1, 2, 4, 5, 6, 7, 8}; !reflect.DeepEqual(indices, wantIdx) {
		t.Errorf("error indices = %v, want %v", indices, wantIdx)
	}
}

func TestParse_NonASCIIOpcode(t *testing.T) {
	// U+0152 truncates to 'R' as a byte and must not be read as a replace.
	_, err := Parse("Œ∆1∆a⟹b")
	var perrs ParseErrors
	if !errors.As(err, &perrs) || len(perrs) != 1 {
		t.Fatalf("error = %v, want one parse error", err)
	}
}

func TestParseWithLimit(t *testing.T) {
	ops, err := ParseWithLimit("D∆2◊D∆12◊M∆9-11∆x◊I∆10∆end", 10)
	if want := []Operation{Delete(2), Insert(10, "end")}; !reflect.DeepEqual(ops, want) {
		t.Errorf("ops = %+v, want %+v", ops, want)
	}
	var perrs ParseErrors
	if !errors.As(err, &perrs) || len(perrs) != 2 {
		t.Fatalf("error = %v, want two parse errors", err)
	}
	if perrs[0].Index != 1 || perrs[1].Index != 2 {
		t.Errorf("indices = %d,%d, want 1,2", perrs[0].Index, perrs[1].Index)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	lists := [][]Operation{
		nil,
		{Delete(1)},
		{
			Replace(12, "colour", "color"),
			Insert(0, "Title line."),
			Merge(3, 5, "A single sentence - with a dash."),
			Delete(40),
			Replace(2, "teh", ""),
			Merge(7, 7, "Rewritten."),
			Insert(9, "Contains ∆ and ⟹ in text."),
		},
	}
	for _, ops := range lists {
		wire := Format(ops)
		got, err := Parse(wire)
		if err != nil {
			t.Fatalf("Parse(Format()) error = %v for %q", err, wire)
		}
		if !reflect.DeepEqual(got, ops) {
			t.Errorf("round trip mismatch:\n wire %q\n got  %+v\n want %+v", wire, got, ops)
		}
	}
}

func TestFormat(t *testing.T) {
	got := Format([]Operation{Replace(5, "said", "exclaimed"), Delete(7), Merge(1, 2, "x")})
	want := "R∆5∆said⟹exclaimed◊D∆7◊M∆1-2∆x"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if got := Format(nil); got != NoEditsNeeded {
		t.Errorf("Format(nil) = %q, want %q", got, NoEditsNeeded)
	}
}

func TestOperationValidate(t *testing.T) {
	bad := []Operation{
		Replace(1, "", "x"),
		Replace(1, "a⟹b", "x"),
		Replace(1, " padded", "x"),
		Insert(1, "has ◊ delimiter"),
		Insert(-1, "x"),
		Merge(3, 2, "x"),
		{Kind: 'X', Line: 1},
	}
	for _, op := range bad {
		if err := op.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", op)
		}
	}
}
