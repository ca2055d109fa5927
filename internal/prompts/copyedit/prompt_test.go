package copyedit

import (
	"strings"
	"testing"

	"github.com/jackzampolin/redpen/internal/edits"
	"github.com/jackzampolin/redpen/internal/prompts"
	"github.com/jackzampolin/redpen/internal/types"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"", StyleModerate, false},
		{"default", StyleModerate, false},
		{"Light", StyleLight, false},
		{" heavy ", StyleHeavy, false},
		{"moderate", StyleModerate, false},
		{"brutal", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStyle(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStyle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSystemPromptsDescribeWireFormat(t *testing.T) {
	for _, s := range Styles {
		t.Run(string(s), func(t *testing.T) {
			p := SystemPrompt(s)
			for _, tok := range []string{edits.FieldSep, edits.ReplaceArrow, edits.OpSep, edits.NoEditsNeeded} {
				if !strings.Contains(p, tok) {
					t.Errorf("prompt missing %q", tok)
				}
			}
		})
	}
	if SystemPrompt("unknown") != SystemPrompt(DefaultStyle) {
		t.Error("unknown style should fall back to the default prompt")
	}
}

func TestRegisterPrompts(t *testing.T) {
	r := prompts.NewResolver("", nil)
	RegisterPrompts(r)
	for _, s := range Styles {
		p, err := r.Resolve(PromptKey(s))
		if err != nil {
			t.Fatalf("Resolve(%s): %v", s, err)
		}
		if p.Text != SystemPrompt(s) {
			t.Errorf("%s: resolved text differs from embedded prompt", s)
		}
	}
}

func TestBuildBatch(t *testing.T) {
	chapters := []*types.Chapter{
		{ID: "c1", Number: 1, Title: "Arrival", Lines: []string{"He said hello.", "She waved."}},
		{ID: "c2", Number: 2, Lines: []string{"Night fell."}},
	}

	user, lm := BuildBatch(chapters)

	want := "CHAPTER TO EDIT (with line numbers):\n" +
		"\n=== CHAPTER 1: Arrival ===\n1: He said hello.\n2: She waved.\n" +
		"\n=== CHAPTER 2 ===\n3: Night fell.\n"
	if user != want {
		t.Errorf("BuildBatch user message:\n%q\nwant:\n%q", user, want)
	}

	if lm.Total() != 3 {
		t.Errorf("Total = %d, want 3", lm.Total())
	}
	r, ok := lm.Locate(3)
	if !ok || r.ChapterID != "c2" {
		t.Errorf("Locate(3) = %+v, %v", r, ok)
	}

	routed, issues := lm.Route([]edits.Operation{edits.Replace(3, "Night", "Dusk")})
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
	if ops := routed["c2"]; len(ops) != 1 || ops[0].Line != 1 {
		t.Errorf("routed c2 = %+v, want one op on line 1", ops)
	}
}

func TestBuildBatchWithContext(t *testing.T) {
	prev := &types.Chapter{ID: "c0", Number: 1, Lines: []string{"a", "b", "c"}}
	cur := &types.Chapter{ID: "c1", Number: 2, Title: "Two", Lines: []string{"x"}}
	next := &types.Chapter{ID: "c2", Number: 3, Lines: []string{"z"}}

	user, lm := BuildBatchWithContext([]*types.Chapter{cur}, Context{Previous: prev, Next: next, Lines: 2})

	want := "PREVIOUS CHAPTER (for context only, do not edit):\na\nb\n...\n" +
		"\nCHAPTER TO EDIT (with line numbers):\n" +
		"\n=== CHAPTER 2: Two ===\n1: x\n" +
		"\nNEXT CHAPTER (for context only, do not edit):\nz\n"
	if user != want {
		t.Errorf("got:\n%q\nwant:\n%q", user, want)
	}
	if lm.Total() != 1 {
		t.Errorf("context lines must not be numbered, total = %d", lm.Total())
	}

	plain, _ := BuildBatchWithContext([]*types.Chapter{cur}, Context{Previous: prev, Next: next})
	if strings.Contains(plain, "PREVIOUS") || strings.Contains(plain, "NEXT") {
		t.Error("zero Lines should disable context")
	}
}
