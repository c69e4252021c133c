// v0
// internal/schedule/regroup_test.go
package schedule

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegroupEmptyShapesAreEquivalent(t *testing.T) {
	for _, body := range []string{"", "  ", "null", "[]", "{}"} {
		got, err := RegroupIfFlat([]byte(body))
		if err != nil {
			t.Fatalf("body %q: unexpected error %v", body, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("body %q: expected empty collection, got %#v", body, got)
		}
	}
}

func TestRegroupFlatArray(t *testing.T) {
	body := `[
		{"exam_date":"2026-01-13","Start":"09:00","Module":"Algo","GroupCode":"G1","FullGroupLabel":"L3 G1","SplitPart":null},
		{"exam_date":"2026-01-12","Start":"09:00","Module":"BDD","GroupCode":"G1","FullGroupLabel":"L3 G1","SplitPart":null},
		{"exam_date":"2026-01-12","Start":"13:00","Module":"Réseaux","GroupCode":"G2","SplitPart":2}
	]`
	got, err := RegroupIfFlat([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"L3 G1", "G2"}, got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if got[0].Exams[0].Module != "BDD" {
		t.Fatalf("expected exams sorted by date, got %+v", got[0].Exams)
	}
	if got[1].Classification != ClassSplit || got[1].Exams[0].SplitMarker != "2" {
		t.Fatalf("expected G2 split with marker 2, got %+v", got[1])
	}
}

func TestRegroupObjectPreservesKeyOrder(t *testing.T) {
	body := `{
		"GI2": {"label":"GI2","type":"normal","exams":[{"date":"2026-01-14","start":"09:00","module":"X"}]},
		"GI1_1": {"label":"GI1 (Part 1)","type":"split","exams":[
			{"date":"2026-01-13","start":"13:00","module":"B"},
			{"date":"2026-01-12","start":"09:00","module":"A"}
		]},
		"G1+G2": {"label":"G1 + G2","type":"merged","exams":[]}
	}`
	got, err := RegroupIfFlat([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"GI2", "GI1 (Part 1)", "G1 + G2"}, got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	split := got[1]
	if split.Classification != ClassSplit {
		t.Fatalf("expected split classification, got %s", split.Classification)
	}
	if split.Exams[0].Module != "A" || split.Exams[1].Module != "B" {
		t.Fatalf("expected re-sorted exams, got %+v", split.Exams)
	}
	if got[2].Classification != ClassNormal {
		t.Fatalf("merged groups are carried as normal, got %s", got[2].Classification)
	}
}

func TestRegroupObjectKeyUsedWithoutLabel(t *testing.T) {
	got, err := RegroupIfFlat([]byte(`{"G9":{"exams":[{"module":"M"}]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Key != "G9" {
		t.Fatalf("expected object key as group key, got %+v", got)
	}
}

func TestRegroupArrayOfGroupsMergesDuplicates(t *testing.T) {
	body := `[
		{"label":"G1","exams":[{"date":"2026-01-13","start":"09:00","module":"late"}]},
		{"label":"G2","exams":[]},
		{"label":"G1","exams":[{"date":"2026-01-12","start":"09:00","module":"early","SplitPart":1}]}
	]`
	got, err := RegroupIfFlat([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"G1", "G2"}, got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	g1 := got[0]
	if len(g1.Exams) != 2 || g1.Exams[0].Module != "early" {
		t.Fatalf("expected merged and sorted exams, got %+v", g1.Exams)
	}
	if g1.Classification != ClassSplit {
		t.Fatalf("expected split from member marker, got %s", g1.Classification)
	}
}

func TestRegroupMatchesGroupForFlatInput(t *testing.T) {
	body := `[
		{"exam_date":"2026-01-12","Start":"09:00","Module":"A","GroupCode":"G1"},
		{"exam_date":"2026-01-11","Start":"09:00","Module":"B","GroupCode":"G2"},
		{"exam_date":"2026-01-10","Start":"09:00","Module":"C","GroupCode":"G1"}
	]`
	viaAdapter, err := RegroupIfFlat([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	direct := GroupAssignments([]ExamAssignment{
		{ExamDate: "2026-01-12", Start: "09:00", Module: "A", GroupCode: "G1"},
		{ExamDate: "2026-01-11", Start: "09:00", Module: "B", GroupCode: "G2"},
		{ExamDate: "2026-01-10", Start: "09:00", Module: "C", GroupCode: "G1"},
	})
	if diff := cmp.Diff(direct, viaAdapter); diff != "" {
		t.Fatalf("adapter diverges from GroupAssignments (-direct +adapter):\n%s", diff)
	}
}

func TestRegroupMalformed(t *testing.T) {
	for _, body := range []string{`{"G1":`, `[1,2`, `"text"`, `42`, `[1]`} {
		if _, err := RegroupIfFlat([]byte(body)); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("body %q: expected ErrMalformedPayload, got %v", body, err)
		}
	}
}

func TestDecodeAssignments(t *testing.T) {
	got, err := DecodeAssignments([]byte(`[{"Module":"B","SplitPart":2},{"Module":"A"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Module != "B" || got[0].SplitMarker != "2" || got[1].Module != "A" {
		t.Fatalf("unexpected rows %+v", got)
	}
	empty, err := DecodeAssignments([]byte("null"))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty slice, got %#v, %v", empty, err)
	}
	if _, err := DecodeAssignments([]byte(`{"a":1}`)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestRegroupSkipsNullElements(t *testing.T) {
	body := `[
		null,
		{"exam_date":"2026-01-12","Start":"09:00","Module":"BDD","GroupCode":"G1"},
		{"label":"G2","exams":[null,{"date":"2026-01-13","start":"09:00","module":"Algo"}]}
	]`
	got, err := RegroupIfFlat([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"G1", "G2"}, got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if got.ExamCount() != 2 {
		t.Fatalf("expected null records dropped, got %d exams", got.ExamCount())
	}

	rows, err := DecodeAssignments([]byte(`[null,{"Module":"A"},null]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Module != "A" {
		t.Fatalf("expected one row, got %+v", rows)
	}
}
