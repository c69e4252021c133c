// v0
// internal/dashboard/dashboard.go
package dashboard

import (
	"time"

	"projetbda/analytics/internal/kpi"
	"projetbda/analytics/internal/ranking"
)

// Section names, used in logs and metrics.
const (
	SectionKPIs         = "kpis"
	SectionDistribution = "room_distribution"
	SectionTopRooms     = "top_rooms"
	SectionProfLoad     = "prof_load"
	SectionConflicts    = "prof_conflicts"
)

// Status reports how one section was produced. Error is empty on success;
// Integrity marks data rejected by precondition checks rather than a fetch
// failure.
type Status struct {
	Error     string `json:"error,omitempty"`
	Integrity bool   `json:"integrity,omitempty"`
}

// OK reports whether the section was built.
func (s Status) OK() bool { return s.Error == "" }

type KPISection struct {
	Status
	Snapshot  kpi.Snapshot  `json:"snapshot"`
	Rates     kpi.Rates     `json:"rates"`
	Breakdown kpi.Breakdown `json:"breakdown"`
}

type DistributionSection struct {
	Status
	Entries []kpi.DistributionEntry `json:"entries"`
}

type TopRoomsSection struct {
	Status
	Rooms []ranking.RankedRoom `json:"rooms"`
}

type ProfessorLoadSection struct {
	Status
	Professors []ranking.RankedProfessor `json:"professors"`
}

type ConflictsSection struct {
	Status
	Conflicts []ranking.Conflict      `json:"conflicts"`
	Summary   ranking.ConflictSummary `json:"summary"`
}

// Dashboard is the operations view of one period. Sections are independent:
// a failed section carries its error while the others keep their data.
type Dashboard struct {
	PeriodID      int64                `json:"periodId"`
	GeneratedAt   time.Time            `json:"generatedAt"`
	KPIs          KPISection           `json:"kpis"`
	Distribution  DistributionSection  `json:"roomDistribution"`
	TopRooms      TopRoomsSection      `json:"topRooms"`
	ProfessorLoad ProfessorLoadSection `json:"profLoad"`
	Conflicts     ConflictsSection     `json:"conflicts"`
}

func (d Dashboard) statuses() []Status {
	return []Status{d.KPIs.Status, d.Distribution.Status, d.TopRooms.Status, d.ProfessorLoad.Status, d.Conflicts.Status}
}

// Failed counts the sections that could not be built.
func (d Dashboard) Failed() int {
	n := 0
	for _, s := range d.statuses() {
		if !s.OK() {
			n++
		}
	}
	return n
}

// Complete reports whether every section was built.
func (d Dashboard) Complete() bool { return d.Failed() == 0 }
