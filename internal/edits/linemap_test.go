package edits

import (
	"reflect"
	"testing"
)

func TestLineMapRoute(t *testing.T) {
	var m LineMap
	m.Add("a", 3) // 1-3
	m.Add("b", 0) // empty
	m.Add("c", 4) // 4-7

	if m.Total() != 7 {
		t.Fatalf("Total() = %d, want 7", m.Total())
	}

	ops := []Operation{
		Replace(2, "x", "y"),
		Delete(5),
		Insert(3, "end of a"),
		Insert(0, "top"),
		Merge(3, 4, "crosses"),
		Merge(6, 7, "inside c"),
		Delete(8),
	}
	routed, issues := m.Route(ops)

	want := map[string][]Operation{
		"a": {Replace(2, "x", "y"), Insert(3, "end of a"), Insert(0, "top")},
		"c": {Delete(2), Merge(3, 4, "inside c")},
	}
	if !reflect.DeepEqual(routed, want) {
		t.Errorf("routed = %+v, want %+v", routed, want)
	}

	if len(issues) != 2 {
		t.Fatalf("issues = %+v, want 2", issues)
	}
	if issues[0].Kind != IssueCrossesChapter || issues[0].ChapterID != "a" || issues[0].Index != 4 {
		t.Errorf("issue[0] = %+v", issues[0])
	}
	if issues[1].Kind != IssueOutOfRange || issues[1].ChapterID != "" || issues[1].Index != 6 {
		t.Errorf("issue[1] = %+v", issues[1])
	}
}

func TestLineMapLocate(t *testing.T) {
	var m LineMap
	m.Add("a", 2)
	m.Add("b", 2)
	r, ok := m.Locate(3)
	if !ok || r.ChapterID != "b" || r.Start != 3 || r.Len() != 2 {
		t.Errorf("Locate(3) = %+v, %v", r, ok)
	}
	if _, ok := m.Locate(0); ok {
		t.Error("Locate(0) should fail")
	}
}
