// v0
// internal/kpi/kpi.go
package kpi

// Snapshot carries the raw planning counters reported for one period.
type Snapshot struct {
	TotalPlanned  int64 `json:"totalPlanned"`
	ExpectedSlots int64 `json:"expectedSlots"`
	MergedCount   int64 `json:"mergedCount"`
	SplitCount    int64 `json:"splitCount"`
	TotalProfs    int64 `json:"totalProfs"`
	TotalStudents int64 `json:"totalStudents"`
}

// Rates are the integer percentages derived from a Snapshot.
type Rates struct {
	SuccessPct int64 `json:"successPct"` // planned over expected slots
	MergedPct  int64 `json:"mergedPct"`  // merged over planned
	SplitPct   int64 `json:"splitPct"`   // split over planned
}

// Breakdown splits planned exams into their handling categories.
type Breakdown struct {
	Merged  int64 `json:"merged"`
	Split   int64 `json:"split"`
	Regular int64 `json:"regular"`
}

// RoomTypeUsage is the number of sittings hosted by one room type.
type RoomTypeUsage struct {
	RoomType   string `json:"type"`
	UsageCount int64  `json:"usageCount"`
}

// DistributionEntry is one slice of the room-type distribution.
type DistributionEntry struct {
	Label      string `json:"label"`
	UsageCount int64  `json:"usageCount"`
	SharePct   int64  `json:"sharePct"`
}
