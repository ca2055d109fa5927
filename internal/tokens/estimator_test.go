package tokens

import (
	"math"
	"strings"
	"testing"
)

func TestEstimateWords(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{-3, 0},
		{1, 2},
		{3, 4},
		{75, 100},
		{100, 134},
	}
	for _, tt := range tests {
		got := EstimateWords(tt.words)
		want := int(math.Ceil(float64(tt.words) / 0.75))
		if tt.words <= 0 {
			want = 0
		}
		if got != tt.want || got != want {
			t.Errorf("EstimateWords(%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestFallbackEstimate(t *testing.T) {
	e := Fallback()
	if e.Exact() {
		t.Fatal("fallback estimator should not be exact")
	}
	if got := e.Estimate(""); got != 0 {
		t.Errorf("Estimate(\"\") = %d, want 0", got)
	}
	if got := e.Estimate("   \n\t "); got != 0 {
		t.Errorf("Estimate(whitespace) = %d, want 0", got)
	}
	if got := e.Estimate("one two three"); got != 4 {
		t.Errorf("Estimate(3 words) = %d, want 4", got)
	}
}

func TestFallbackMonotonic(t *testing.T) {
	e := Fallback()
	parts := []string{"The", " quick", "brown", " fox\n", "jumps", "  over the", " lazy dog."}
	var sb strings.Builder
	prev := 0
	for _, p := range parts {
		sb.WriteString(p)
		got := e.Estimate(sb.String())
		if got < prev {
			t.Fatalf("estimate decreased after appending %q: %d -> %d", p, prev, got)
		}
		prev = got
	}
}

func TestNewEstimatorWithoutExact(t *testing.T) {
	e := NewEstimator(Config{})
	if e.Exact() {
		t.Error("Exact() = true without Exact config")
	}
}

func TestCountMessages(t *testing.T) {
	e := Fallback()
	// 2 priming + 2*(4 framing) + content
	if got := e.CountMessages("", ""); got != 10 {
		t.Errorf("CountMessages(empty) = %d, want 10", got)
	}
	if got := e.CountMessages("one two three", "four five six"); got != 18 {
		t.Errorf("CountMessages = %d, want 18", got)
	}
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		model string
		in    int
		out   int
		want  float64
	}{
		{"gpt-4", 1000, 1000, 0.09},
		{"gpt-4o-mini", 1000, 1000, 0.00075},
		{"openai/gpt-4o", 2000, 0, 0.01},
		{"unknown-model", 1000, 0, 0.03},
		{"gpt-3.5-turbo", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got := EstimateCost(tt.model, tt.in, tt.out)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimateCost(%q, %d, %d) = %v, want %v", tt.model, tt.in, tt.out, got, tt.want)
			}
		})
	}
}
