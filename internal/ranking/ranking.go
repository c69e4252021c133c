// v0
// internal/ranking/ranking.go
package ranking

import "sort"

const (
	// RoomHighlightCount is the number of leading rooms flagged for emphasis.
	RoomHighlightCount = 4
	// ProfessorHighlightCount is the number of leading professors flagged for
	// emphasis.
	ProfessorHighlightCount = 10
)

// RoomUsage is one room aggregate as supplied by the planner.
type RoomUsage struct {
	Name       string `json:"name"`
	RoomType   string `json:"type"`
	UsageCount int64  `json:"usageCount"`
}

// RankedRoom is a room placed in the usage ranking.
type RankedRoom struct {
	RoomUsage
	Rank      int  `json:"rank"`
	Highlight bool `json:"highlight"`
}

// ProfessorLoad is one professor's supervision total for a period.
type ProfessorLoad struct {
	Name              string `json:"name"`
	Department        string `json:"department"`
	TotalSupervisions int64  `json:"totalSupervisions"`
}

// RankedProfessor is a professor placed in the workload ranking.
type RankedProfessor struct {
	ProfessorLoad
	Rank      int  `json:"rank"`
	Highlight bool `json:"highlight"`
	Tier      Tier `json:"tier"`
}

// RankRooms orders rooms by descending usage. Equal counts keep their input
// order. The input slice is left untouched.
func RankRooms(records []RoomUsage) []RankedRoom {
	sorted := make([]RoomUsage, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})

	out := make([]RankedRoom, 0, len(sorted))
	for idx, r := range sorted {
		out = append(out, RankedRoom{
			RoomUsage: r,
			Rank:      idx + 1,
			Highlight: idx < RoomHighlightCount,
		})
	}
	return out
}

// RankProfessors orders professors by descending supervision count and tags
// each entry with its workload tier. Equal counts keep their input order.
func RankProfessors(records []ProfessorLoad) []RankedProfessor {
	sorted := make([]ProfessorLoad, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalSupervisions > sorted[j].TotalSupervisions
	})

	out := make([]RankedProfessor, 0, len(sorted))
	for idx, p := range sorted {
		out = append(out, RankedProfessor{
			ProfessorLoad: p,
			Rank:          idx + 1,
			Highlight:     idx < ProfessorHighlightCount,
			Tier:          TierFor(p.TotalSupervisions),
		})
	}
	return out
}
