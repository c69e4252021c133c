// v0
// internal/planner/wire.go
package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"projetbda/analytics/internal/kpi"
	"projetbda/analytics/internal/ranking"
	"projetbda/analytics/internal/schedule"
)

// flexInt accepts JSON numbers, numeric strings and null. The planner
// serialises aggregates from dataframes, so integers sometimes arrive as
// floats ("12.0") or strings. Fractional or out-of-range values are rejected.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = 0
			return nil
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != math.Trunc(v) {
		return fmt.Errorf("not an integer: %s", raw)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return fmt.Errorf("integer out of range: %s", raw)
	}
	*f = flexInt(int64(v))
	return nil
}

// flexString accepts strings, numbers and null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

type periodWire struct {
	ID          flexInt    `json:"id_periode"`
	Description flexString `json:"description"`
	Start       flexString `json:"date_debut"`
	End         flexString `json:"date_fin"`
	HasPlanning flexInt    `json:"has_planning"`
}

func (w periodWire) toDomain() schedule.Period {
	return schedule.Period{
		ID:          int64(w.ID),
		Start:       string(w.Start),
		End:         string(w.End),
		Description: string(w.Description),
		HasPlanning: w.HasPlanning != 0,
	}
}

// Professor is a supervisor as listed by the planner.
type Professor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	DepartmentID int64  `json:"departmentId"`
}

type professorWire struct {
	ID           flexInt    `json:"id_prof"`
	Name         flexString `json:"nom"`
	Specialty    flexString `json:"specialite"`
	DepartmentID flexInt    `json:"id_dept"`
}

func (w professorWire) toDomain() Professor {
	return Professor{
		ID:           int64(w.ID),
		Name:         string(w.Name),
		Specialty:    string(w.Specialty),
		DepartmentID: int64(w.DepartmentID),
	}
}

type kpiWire struct {
	TotalPlanned  flexInt `json:"total_planned"`
	ExpectedSlots flexInt `json:"expected_slots"`
	MergedCount   flexInt `json:"merged_count"`
	SplitCount    flexInt `json:"split_count"`
	TotalProfs    flexInt `json:"total_profs"`
	TotalStudents flexInt `json:"total_students"`
}

func (w kpiWire) toDomain() kpi.Snapshot {
	return kpi.Snapshot{
		TotalPlanned:  int64(w.TotalPlanned),
		ExpectedSlots: int64(w.ExpectedSlots),
		MergedCount:   int64(w.MergedCount),
		SplitCount:    int64(w.SplitCount),
		TotalProfs:    int64(w.TotalProfs),
		TotalStudents: int64(w.TotalStudents),
	}
}

type roomTypeWire struct {
	Type       flexString `json:"type"`
	UsageCount flexInt    `json:"usage_count"`
}

type topRoomWire struct {
	Name     flexString `json:"nom"`
	Type     flexString `json:"type"`
	Sessions flexInt    `json:"sessions"`
}

type profLoadWire struct {
	Name  flexString `json:"nom"`
	Dept  flexString `json:"Dept"`
	Total flexInt    `json:"total_surveillances"`
}

type profConflictWire struct {
	Professor   flexString `json:"Professor"`
	Date        flexString `json:"date"`
	Start       flexString `json:"Start"`
	Assignments flexInt    `json:"Assignments"`
	Details     flexString `json:"Details"`
}

func (w profConflictWire) toDomain() ranking.Conflict {
	detail := strings.TrimSpace(string(w.Details))
	if detail == "" {
		detail = ranking.NoDetail
	}
	return ranking.Conflict{
		Professor:       string(w.Professor),
		Date:            string(w.Date),
		Start:           string(w.Start),
		AssignmentCount: int64(w.Assignments),
		Detail:          detail,
	}
}

type roomConflictWire struct {
	Room  flexString `json:"Room"`
	Date  flexString `json:"date"`
	Start flexString `json:"Start"`
	Exams flexInt    `json:"Exams"`
}
