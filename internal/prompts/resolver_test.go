package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"no variables", nil},
		{"Hello {{.Name}}, you have {{ .Count }} items", []string{"Count", "Name"}},
		{"{{.Project.Title}} and {{.Project.Title}}", []string{"Project.Title"}},
	}
	for _, tt := range tests {
		got := ExtractVariables(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExtractVariables(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestHashText(t *testing.T) {
	if HashText("a") == HashText("b") {
		t.Error("different text should hash differently")
	}
	if len(HashText("")) != 64 {
		t.Errorf("hash length = %d, want 64", len(HashText("")))
	}
}

func TestResolver_Embedded(t *testing.T) {
	r := NewResolver("", nil)
	r.Register(EmbeddedPrompt{Key: "a.system", Text: "edit carefully"})

	got, err := r.Resolve("a.system")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.IsOverride || got.Text != "edit carefully" || got.Hash != HashText("edit carefully") {
		t.Errorf("unexpected resolution: %+v", got)
	}

	if _, err := r.Resolve("missing"); !errors.Is(err, ErrPromptNotFound) {
		t.Errorf("err = %v, want ErrPromptNotFound", err)
	}
}

func TestResolver_Override(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, nil)
	r.Register(EmbeddedPrompt{Key: "a.system", Text: "embedded"})

	if err := os.WriteFile(filepath.Join(dir, "a.system.tmpl"), []byte("custom for {{.Title}}"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := r.Resolve("a.system")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.IsOverride || got.Source != r.OverridePath("a.system") {
		t.Errorf("expected override from %s, got %+v", r.OverridePath("a.system"), got)
	}

	text, err := got.Render(map[string]string{"Title": "Dune"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if text != "custom for Dune" {
		t.Errorf("Render = %q", text)
	}
	if _, err := got.Render(map[string]string{}); err == nil {
		t.Error("expected error for missing variable")
	}

	// An override can exist without an embedded default.
	if err := os.WriteFile(filepath.Join(dir, "extra.tmpl"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve("extra"); err != nil {
		t.Errorf("Resolve(extra): %v", err)
	}
}

func TestResolver_AllEmbeddedSorted(t *testing.T) {
	r := NewResolver("", nil)
	r.Register(EmbeddedPrompt{Key: "b", Text: "2"})
	r.Register(EmbeddedPrompt{Key: "a", Text: "1"})

	all := r.AllEmbedded()
	if len(all) != 2 || all[0].Key != "a" || all[1].Key != "b" {
		t.Errorf("AllEmbedded = %+v", all)
	}
	if p, ok := r.GetEmbedded("a"); !ok || p.Hash == "" {
		t.Errorf("GetEmbedded(a) = %+v, %v", p, ok)
	}
}
