// v0
// internal/ranking/ranking_test.go
package ranking

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTierBoundaries(t *testing.T) {
	counts := []int64{49, 50, 79, 80, 99, 100}
	want := []Tier{TierNone, TierNormal, TierNormal, TierMedium, TierMedium, TierHigh}
	for i, c := range counts {
		if got := TierFor(c); got != want[i] {
			t.Fatalf("TierFor(%d) = %s, want %s", c, got, want[i])
		}
	}
}

func TestTierForIsTotal(t *testing.T) {
	for _, c := range []int64{-5, 0, 1, 1000, 1 << 40} {
		switch TierFor(c) {
		case TierNone, TierNormal, TierMedium, TierHigh:
		default:
			t.Fatalf("TierFor(%d) returned unknown tier", c)
		}
	}
	if TierFor(-1) != TierNone {
		t.Fatalf("negative counts must map to none")
	}
}

func TestTierLabel(t *testing.T) {
	if TierHigh.Label() != "Élevé" || TierNone.Label() != "" {
		t.Fatalf("unexpected labels: %q %q", TierHigh.Label(), TierNone.Label())
	}
}

func TestRankRoomsDescendingAndStable(t *testing.T) {
	in := []RoomUsage{
		{Name: "S1", UsageCount: 3},
		{Name: "A1", UsageCount: 9},
		{Name: "S2", UsageCount: 3},
		{Name: "S3", UsageCount: 12},
	}
	got := RankRooms(in)
	var names []string
	for _, r := range got {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"S3", "A1", "S1", "S2"}, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if got[0].Rank != 1 || got[3].Rank != 4 {
		t.Fatalf("unexpected ranks: %+v", got)
	}
	if in[0].Name != "S1" {
		t.Fatalf("input reordered")
	}
}

func TestRankRoomsHighlightsTopFour(t *testing.T) {
	in := make([]RoomUsage, 6)
	for i := range in {
		in[i] = RoomUsage{Name: fmt.Sprintf("R%d", i), UsageCount: int64(10 - i)}
	}
	got := RankRooms(in)
	for i, r := range got {
		if want := i < RoomHighlightCount; r.Highlight != want {
			t.Fatalf("room %d highlight = %v, want %v", i, r.Highlight, want)
		}
	}
}

func TestRankRoomsFewerThanCutoff(t *testing.T) {
	got := RankRooms([]RoomUsage{{Name: "only", UsageCount: 1}})
	if len(got) != 1 || !got[0].Highlight {
		t.Fatalf("single room should be highlighted: %+v", got)
	}
	if empty := RankRooms(nil); empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil ranking")
	}
}

func TestRankProfessors(t *testing.T) {
	in := make([]ProfessorLoad, 0, 12)
	for i := 0; i < 12; i++ {
		in = append(in, ProfessorLoad{Name: fmt.Sprintf("P%02d", i), TotalSupervisions: int64(40 + 6*i)})
	}
	in = append(in, ProfessorLoad{Name: "tie", TotalSupervisions: 106})

	got := RankProfessors(in)
	if got[0].Name != "P11" || got[1].Name != "tie" {
		t.Fatalf("expected P11 then tie (stable), got %s, %s", got[0].Name, got[1].Name)
	}
	if got[0].Tier != TierHigh {
		t.Fatalf("expected high tier for 106, got %s", got[0].Tier)
	}
	for i, p := range got {
		if want := i < ProfessorHighlightCount; p.Highlight != want {
			t.Fatalf("professor %d highlight = %v, want %v", i, p.Highlight, want)
		}
		if p.Tier != TierFor(p.TotalSupervisions) {
			t.Fatalf("tier mismatch for %s", p.Name)
		}
	}
	last := got[len(got)-1]
	if last.Name != "P00" || last.Tier != TierNone || last.Rank != 13 {
		t.Fatalf("unexpected tail entry %+v", last)
	}
}

func TestSummarizeConflicts(t *testing.T) {
	none := SummarizeConflicts(nil)
	if none.HasConflicts || none.Count != 0 {
		t.Fatalf("unexpected summary %+v", none)
	}
	some := SummarizeConflicts([]Conflict{{Professor: "Dupont"}, {Professor: "Martin"}})
	want := ConflictSummary{HasConflicts: true, Count: 2, Message: "2 conflict(s) detected. Review immediately."}
	if diff := cmp.Diff(want, some); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestConflictDetailText(t *testing.T) {
	if got := (Conflict{}).DetailText(); got != NoDetail {
		t.Fatalf("expected placeholder, got %q", got)
	}
	if got := (Conflict{Detail: "Algo — A1 (amphi)"}).DetailText(); got != "Algo — A1 (amphi)" {
		t.Fatalf("unexpected detail %q", got)
	}
}
