// v0
// internal/ranking/conflict.go
package ranking

import "fmt"

// NoDetail replaces an absent conflict detail.
const NoDetail = "—"

// Conflict reports a professor booked on several exams in the same slot. The
// values are computed upstream; this package only summarizes them.
type Conflict struct {
	Professor       string `json:"professor"`
	Date            string `json:"date"`
	Start           string `json:"start"`
	AssignmentCount int64  `json:"assignmentCount"`
	Detail          string `json:"detail"`
}

// RoomConflict reports a room hosting more than one exam in the same slot.
type RoomConflict struct {
	Room  string `json:"room"`
	Date  string `json:"date"`
	Start string `json:"start"`
	Exams int64  `json:"exams"`
}

// ConflictSummary is the presence status shown above the conflict table.
type ConflictSummary struct {
	HasConflicts bool   `json:"hasConflicts"`
	Count        int    `json:"count"`
	Message      string `json:"message"`
}

// SummarizeConflicts reports whether any professor overlap exists.
func SummarizeConflicts(conflicts []Conflict) ConflictSummary {
	if len(conflicts) == 0 {
		return ConflictSummary{Message: "No professor overlaps detected. System is optimal."}
	}
	return ConflictSummary{
		HasConflicts: true,
		Count:        len(conflicts),
		Message:      fmt.Sprintf("%d conflict(s) detected. Review immediately.", len(conflicts)),
	}
}

// DetailText returns the detail or NoDetail when empty.
func (c Conflict) DetailText() string {
	if c.Detail == "" {
		return NoDetail
	}
	return c.Detail
}
