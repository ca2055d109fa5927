package diff

import (
	"reflect"
	"strings"
	"testing"
)

func kinds(rec *Record) string {
	var sb strings.Builder
	for _, l := range rec.Lines {
		sb.WriteByte("URID"[l.Kind])
	}
	return sb.String()
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []string
		kinds string
		stats Stats
	}{
		{
			name:  "identical",
			a:     []string{"a", "b", "c"},
			b:     []string{"a", "b", "c"},
			kinds: "UUU",
			stats: Stats{Unchanged: 3},
		},
		{
			name:  "in place edit is a replacement",
			a:     []string{"a", "He said hello.", "c"},
			b:     []string{"a", "He exclaimed hello.", "c"},
			kinds: "URU",
			stats: Stats{Unchanged: 2, Replaced: 1},
		},
		{
			name:  "deleted line",
			a:     []string{"a", "b", "c"},
			b:     []string{"a", "c"},
			kinds: "UDU",
			stats: Stats{Unchanged: 2, Deleted: 1},
		},
		{
			name:  "inserted line",
			a:     []string{"a", "c"},
			b:     []string{"a", "b", "c"},
			kinds: "UIU",
			stats: Stats{Unchanged: 2, Inserted: 1},
		},
		{
			name:  "merge collapses lines",
			a:     []string{"a", "b1", "b2", "b3", "c"},
			b:     []string{"a", "b", "c"},
			kinds: "URDDU",
			stats: Stats{Unchanged: 2, Replaced: 1, Deleted: 2},
		},
		{
			name:  "from empty",
			a:     nil,
			b:     []string{"x", "y"},
			kinds: "II",
			stats: Stats{Inserted: 2},
		},
		{
			name:  "to empty",
			a:     []string{"x", "y"},
			b:     nil,
			kinds: "DD",
			stats: Stats{Deleted: 2},
		},
		{
			name:  "both empty",
			kinds: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Compute(tt.a, tt.b)
			if got := kinds(rec); got != tt.kinds {
				t.Errorf("kinds = %q, want %q", got, tt.kinds)
			}
			if rec.Stats != tt.stats {
				t.Errorf("stats = %+v, want %+v", rec.Stats, tt.stats)
			}
		})
	}
}

func TestCompute_LineNumbers(t *testing.T) {
	rec := Compute([]string{"a", "b", "c"}, []string{"z", "a", "c"})
	want := []Line{
		{Kind: Inserted, NewNum: 1, New: "z"},
		{Kind: Unchanged, OldNum: 1, NewNum: 2, Old: "a", New: "a"},
		{Kind: Deleted, OldNum: 2, Old: "b"},
		{Kind: Unchanged, OldNum: 3, NewNum: 3, Old: "c", New: "c"},
	}
	if !reflect.DeepEqual(rec.Lines, want) {
		t.Errorf("lines = %+v\nwant %+v", rec.Lines, want)
	}
}

func TestCompute_Reconstructs(t *testing.T) {
	a := strings.Split("the quick brown fox jumps over the lazy dog and runs far away", " ")
	b := strings.Split("a quick red fox leaps over the dog and runs very far away today", " ")
	rec := Compute(a, b)

	var gotA, gotB []string
	for _, l := range rec.Lines {
		if l.OldNum > 0 {
			gotA = append(gotA, l.Old)
		}
		if l.NewNum > 0 {
			gotB = append(gotB, l.New)
		}
	}
	if !reflect.DeepEqual(gotA, a) || !reflect.DeepEqual(gotB, b) {
		t.Fatalf("alignment does not reconstruct inputs:\n%v\n%v", gotA, gotB)
	}

	// LCS of the two sequences: quick fox over the dog and runs far away.
	if rec.Stats.Unchanged != 9 {
		t.Errorf("unchanged = %d, want 9", rec.Stats.Unchanged)
	}
}

func TestCompute_Symmetric(t *testing.T) {
	pairs := [][2][]string{
		{{"a", "b", "c", "d"}, {"b", "x", "d", "e", "f"}},
		{{"one", "two", "three"}, {"three", "two", "one"}},
		{{"x", "x", "y"}, {"y", "x"}},
		{{"same"}, {"same"}},
	}
	for _, p := range pairs {
		ab := Compute(p[0], p[1]).Stats
		ba := Compute(p[1], p[0]).Stats
		if ab.Inserted != ba.Deleted || ab.Deleted != ba.Inserted || ab.Replaced != ba.Replaced || ab.Unchanged != ba.Unchanged {
			t.Errorf("asymmetric for %v vs %v: %+v / %+v", p[0], p[1], ab, ba)
		}
	}
}

func TestIdenticalHasNoChanges(t *testing.T) {
	lines := []string{"a", "", "b"}
	rec := Compute(lines, lines)
	if rec.HasChanges() || rec.Stats.Changed() != 0 {
		t.Errorf("identical input reported changes: %+v", rec.Stats)
	}
}

func TestUnified(t *testing.T) {
	out, err := Unified([]string{"a", "b", "c"}, []string{"a", "B", "c"}, -1)
	if err != nil {
		t.Fatalf("Unified() error = %v", err)
	}
	for _, want := range []string{"--- original", "+++ edited", "-b\n", "+B\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("unified diff missing %q:\n%s", want, out)
		}
	}

	out, err = Unified([]string{"a"}, []string{"a"}, 3)
	if err != nil || out != "" {
		t.Errorf("Unified(identical) = %q, %v; want empty", out, err)
	}
}

func TestHunks(t *testing.T) {
	var a, b []string
	for i := 0; i < 20; i++ {
		line := string(rune('a' + i))
		a = append(a, line)
		switch i {
		case 2, 4:
			b = append(b, strings.ToUpper(line))
		case 15:
			// deleted
		default:
			b = append(b, line)
		}
	}
	rec := Compute(a, b)
	hunks := Hunks(rec, 1)
	if len(hunks) != 2 {
		t.Fatalf("hunks = %d, want 2: %+v", len(hunks), hunks)
	}

	// Rows 2 and 4 are one unchanged row apart and share a hunk.
	first := hunks[0]
	if first.OldStart != 2 || first.OldLines != 5 || first.NewLines != 5 {
		t.Errorf("first hunk = %s", first.Header())
	}
	second := hunks[1]
	if second.OldStart != 15 || second.OldLines != 3 || second.NewLines != 2 {
		t.Errorf("second hunk = %s", second.Header())
	}

	if got := Hunks(Compute(a, a), 3); len(got) != 0 {
		t.Errorf("identical input produced %d hunks", len(got))
	}
}
