// v0
// internal/export/rows.go
package export

import "projetbda/analytics/internal/schedule"

// Column sets for the two schedule exports.
var (
	StudentColumns   = []string{"DateLabel", "Start", "End", "Module", "Room", "Building", "FullGroupLabel"}
	ProfessorColumns = []string{"DateLabel", "Start", "End", "Module", "Room", "Building", "GroupLabel"}
)

// File names offered for download.
const (
	StudentFileName   = "student_schedule.csv"
	ProfessorFileName = "prof_schedule.csv"
)

// GroupRows flattens a grouped schedule in group order. The label column
// carries the group key, not the record's own label.
func GroupRows(c schedule.Collection) []Row {
	rows := make([]Row, 0, c.ExamCount())
	for _, g := range c {
		for _, e := range g.Exams {
			row := baseRow(e)
			row["FullGroupLabel"] = g.Key
			rows = append(rows, row)
		}
	}
	return rows
}

// ProfessorRows converts a professor's supervision list, keeping input order.
func ProfessorRows(exams []schedule.ExamAssignment) []Row {
	rows := make([]Row, 0, len(exams))
	for _, e := range exams {
		row := baseRow(e)
		row["GroupLabel"] = e.FullGroupLabel
		rows = append(rows, row)
	}
	return rows
}

func baseRow(e schedule.ExamAssignment) Row {
	return Row{
		"DateLabel": e.DateLabel,
		"Start":     e.Start,
		"End":       e.End,
		"Module":    e.Module,
		"Room":      e.Room,
		"Building":  e.Building,
	}
}
