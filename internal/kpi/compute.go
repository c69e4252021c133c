// v0
// internal/kpi/compute.go
package kpi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSnapshot is the parent of every snapshot integrity error.
	ErrInvalidSnapshot = errors.New("invalid kpi snapshot")
	// ErrNegativeCount reports a counter below zero.
	ErrNegativeCount = fmt.Errorf("%w: negative count", ErrInvalidSnapshot)
	// ErrClassificationOverflow reports merged_count + split_count > total_planned.
	ErrClassificationOverflow = fmt.Errorf("%w: merged and split exceed total planned", ErrInvalidSnapshot)
)

// UnknownRoomType labels distribution entries without a room type.
const UnknownRoomType = "Unknown"

// Validate checks the snapshot preconditions. The returned error matches
// ErrInvalidSnapshot and the specific sentinel under errors.Is.
func (s Snapshot) Validate() error {
	counters := []struct {
		name  string
		value int64
	}{
		{"total_planned", s.TotalPlanned},
		{"expected_slots", s.ExpectedSlots},
		{"merged_count", s.MergedCount},
		{"split_count", s.SplitCount},
		{"total_profs", s.TotalProfs},
		{"total_students", s.TotalStudents},
	}
	for _, c := range counters {
		if c.value < 0 {
			return fmt.Errorf("%w: %s=%d", ErrNegativeCount, c.name, c.value)
		}
	}
	if s.MergedCount+s.SplitCount > s.TotalPlanned {
		return fmt.Errorf("%w: merged_count=%d split_count=%d total_planned=%d",
			ErrClassificationOverflow, s.MergedCount, s.SplitCount, s.TotalPlanned)
	}
	return nil
}

// ComputeRates validates the snapshot and derives each percentage
// independently. A zero denominator yields 0.
func ComputeRates(s Snapshot) (Rates, error) {
	if err := s.Validate(); err != nil {
		return Rates{}, err
	}
	return Rates{
		SuccessPct: Percent(s.TotalPlanned, s.ExpectedSlots),
		MergedPct:  Percent(s.MergedCount, s.TotalPlanned),
		SplitPct:   Percent(s.SplitCount, s.TotalPlanned),
	}, nil
}

// ComputeBreakdown returns the merged/split/regular partition of planned exams.
func ComputeBreakdown(s Snapshot) (Breakdown, error) {
	if err := s.Validate(); err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Merged:  s.MergedCount,
		Split:   s.SplitCount,
		Regular: s.TotalPlanned - s.MergedCount - s.SplitCount,
	}, nil
}

// Percent returns round-half-up(num / den * 100) using integer arithmetic
// only. den <= 0 yields 0; num is expected to be non-negative.
func Percent(num, den int64) int64 {
	if den <= 0 {
		return 0
	}
	return (200*num + den) / (2 * den)
}

// Distribution labels each room type, falling back to UnknownRoomType, and
// attaches its share of the total usage. Input order is kept.
func Distribution(records []RoomTypeUsage) ([]DistributionEntry, error) {
	var total int64
	for _, r := range records {
		if r.UsageCount < 0 {
			return nil, fmt.Errorf("%w: usage_count=%d for %q", ErrNegativeCount, r.UsageCount, r.RoomType)
		}
		total += r.UsageCount
	}
	out := make([]DistributionEntry, 0, len(records))
	for _, r := range records {
		label := strings.TrimSpace(r.RoomType)
		if label == "" {
			label = UnknownRoomType
		}
		out = append(out, DistributionEntry{
			Label:      label,
			UsageCount: r.UsageCount,
			SharePct:   Percent(r.UsageCount, total),
		})
	}
	return out, nil
}
