package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jackzampolin/redpen/internal/types"
)

func TestProjectID(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"/books/My Novel", "my-novel"},
		{"/books/draft_2.v1", "draft_2.v1"},
		{"/books/--Été--", "t"},
		{"/books/???", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			if got := projectID(tt.dir); got != tt.want {
				t.Errorf("projectID(%q) = %q, want %q", tt.dir, got, tt.want)
			}
		})
	}
}

func TestProjectChapter(t *testing.T) {
	p := &project{Dir: "book", Chapters: []*types.Chapter{
		{ID: "ch01", Number: 1},
		{ID: "epilogue", Number: 12},
	}}
	for _, ref := range []string{"ch01", "1"} {
		ch, err := p.chapter(ref)
		if err != nil || ch.ID != "ch01" {
			t.Errorf("chapter(%q) = %v, %v", ref, ch, err)
		}
	}
	if ch, err := p.chapter("12"); err != nil || ch.ID != "epilogue" {
		t.Errorf("chapter(12) = %v, %v", ch, err)
	}
	if _, err := p.chapter("ch02"); err == nil {
		t.Error("expected error for unknown chapter")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		key   string
		value any
		want  any
	}{
		{"llm.api_key", "${OPENAI_API_KEY}", "${OPENAI_API_KEY}"},
		{"llm.api_key", "sk-1234567890", "sk-1****"},
		{"storage.redis_password", "short", "****"},
		{"storage.redis_password", "", ""},
		{"llm.model", "gpt-4o-mini", "gpt-4o-mini"},
		{"processing.workers", 5, 5},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.key, tt.value); got != tt.want {
			t.Errorf("maskSecret(%q, %v) = %v, want %v", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestSetOutputFormat(t *testing.T) {
	t.Cleanup(func() { globalOutputFormat = OutputFormatText })

	if err := SetOutputFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := SetOutputFormat("json"); err != nil {
		t.Fatalf("SetOutputFormat(json): %v", err)
	}
	if !IsStructuredOutput() {
		t.Error("json should be structured output")
	}
	if err := SetOutputFormat("text"); err != nil {
		t.Fatalf("SetOutputFormat(text): %v", err)
	}
	if IsStructuredOutput() {
		t.Error("text should not be structured output")
	}
}

func TestOutputTo(t *testing.T) {
	data := map[string]any{"project": "book", "reset": []string{"ch01"}}

	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(buf.String(), `"project": "book"`) {
		t.Errorf("json output = %s", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "project: book") || !strings.Contains(buf.String(), "- ch01") {
		t.Errorf("yaml output = %s", buf.String())
	}

	if err := OutputTo(&buf, OutputFormat("xml"), data); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a rather long chapter title", 10); got != "a rather …" {
		t.Errorf("truncate = %q", got)
	}
}

func TestRetriesSetting(t *testing.T) {
	if got := retriesSetting(0); got != -1 {
		t.Errorf("retriesSetting(0) = %d, want -1", got)
	}
	if got := retriesSetting(4); got != 4 {
		t.Errorf("retriesSetting(4) = %d, want 4", got)
	}
}
