package chapters

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jackzampolin/redpen/internal/types"
)

type wordCounter struct{}

func (wordCounter) Estimate(text string) int { return len(strings.Fields(text)) }

func TestSortByNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "mixed with double digits",
			input:    []string{"ch-10.txt", "ch-2.txt", "ch-1.txt"},
			expected: []string{"ch-1.txt", "ch-2.txt", "ch-10.txt"},
		},
		{
			name:     "numbered and unnumbered",
			input:    []string{"ch-2.md", "prologue.md", "ch-1.md"},
			expected: []string{"prologue.md", "ch-1.md", "ch-2.md"},
		},
		{
			name:     "zero padded",
			input:    []string{"chapter_003.txt", "chapter_001.txt"},
			expected: []string{"chapter_001.txt", "chapter_003.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sortByNumber(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/path/to/the-storm.txt", "the-storm"},
		{"/path/to/chapter-01.md", "chapter"},
		{"simple.txt", "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := deriveTitle(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	raw := "# The Storm\n\n  It was dark.  \n\n\nThe wind howled.\r\n\n"
	ch := Parse("ch-1", 1, raw)

	if ch.Title != "The Storm" {
		t.Errorf("title = %q", ch.Title)
	}
	want := []string{"It was dark.", "The wind howled."}
	if !reflect.DeepEqual(ch.Lines, want) {
		t.Errorf("lines = %q, want %q", ch.Lines, want)
	}
	if ch.Raw != raw {
		t.Error("raw text should be kept verbatim")
	}
	if ch.Status != types.StatusNotStarted {
		t.Errorf("status = %s", ch.Status)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"ch-2.txt":  "Second chapter line.\n",
		"ch-10.txt": "Tenth.\n",
		"ch-1.md":   "# Arrival\n\nHe said hello.\n\nShe waved back.\n",
		"notes.pdf": "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	chapters, err := LoadDir(dir, wordCounter{})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	var ids []string
	for _, ch := range chapters {
		ids = append(ids, ch.ID)
	}
	if !reflect.DeepEqual(ids, []string{"ch-1", "ch-2", "ch-10"}) {
		t.Fatalf("ids = %v", ids)
	}
	if chapters[0].Title != "Arrival" || chapters[1].Title != "ch" {
		t.Errorf("titles = %q, %q", chapters[0].Title, chapters[1].Title)
	}
	if chapters[2].Number != 3 {
		t.Errorf("number = %d, want 3", chapters[2].Number)
	}
	if chapters[0].Tokens != 6 {
		t.Errorf("tokens = %d, want 6", chapters[0].Tokens)
	}
}

func TestLoadDir_Empty(t *testing.T) {
	if _, err := LoadDir(t.TempDir(), nil); err == nil {
		t.Error("expected error for directory without chapters")
	}
	if _, err := LoadDir(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadDir_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ch1.txt", "ch1.md", "ch2.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("Some text.\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := LoadDir(dir, nil)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("LoadDir error = %v, want ErrDuplicateID", err)
	}
	if !strings.Contains(err.Error(), "ch1.md") || !strings.Contains(err.Error(), "ch1.txt") {
		t.Errorf("error %q should name both files", err)
	}
}

func TestReassemble(t *testing.T) {
	t.Run("unchanged returns raw", func(t *testing.T) {
		raw := "# T\n\n  one  \n\ntwo\n"
		ch := Parse("c", 1, raw)
		if got := Reassemble(ch, ch.Lines); got != raw {
			t.Errorf("got %q, want raw", got)
		}
	})

	t.Run("paragraph separated", func(t *testing.T) {
		ch := Parse("c", 1, "# T\n\none\n\ntwo\n")
		got := Reassemble(ch, []string{"one!", "two", "three"})
		want := "# T\n\none!\n\ntwo\n\nthree\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("line separated without trailing newline", func(t *testing.T) {
		ch := Parse("c", 1, "one\ntwo")
		got := Reassemble(ch, []string{"one"})
		if got != "one" {
			t.Errorf("got %q", got)
		}
	})
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	ch := Parse("ch-1", 1, "one\ntwo\n")
	path, err := Export(dir, ch, []string{"uno", "two"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "uno\ntwo\n" {
		t.Errorf("exported %q", data)
	}
}
