// v0
// internal/httpapi/schedule.go
package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"projetbda/analytics/internal/export"
	"projetbda/analytics/internal/planner"
	"projetbda/analytics/internal/schedule"
)

// periodView is one entry of /api/periodes.
type periodView struct {
	schedule.Period
	Label string `json:"label"`
}

func (a *api) periods(w http.ResponseWriter, r *http.Request) {
	periods, err := a.planner.Periods(r.Context())
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	out := make([]periodView, 0, len(periods))
	for _, p := range periods {
		out = append(out, periodView{Period: p, Label: p.Label()})
	}
	writeData(w, a.log, out)
}

// professors lists supervisors so clients can pick a prof_schedule target.
func (a *api) professors(w http.ResponseWriter, r *http.Request) {
	profs, err := a.planner.Professors(r.Context())
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if profs == nil {
		profs = []planner.Professor{}
	}
	writeData(w, a.log, profs)
}

func (a *api) formationSchedule(w http.ResponseWriter, r *http.Request) {
	c, err := a.loadFormation(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeData(w, a.log, c)
}

func (a *api) studentSchedule(w http.ResponseWriter, r *http.Request) {
	c, err := a.loadStudent(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeData(w, a.log, c)
}

func (a *api) professorSchedule(w http.ResponseWriter, r *http.Request) {
	rows, err := a.loadProfessor(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeData(w, a.log, rows)
}

func (a *api) formationScheduleCSV(w http.ResponseWriter, r *http.Request) {
	c, err := a.loadFormation(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	a.writeCSV(w, export.StudentFileName, export.ToCSV(export.StudentColumns, export.GroupRows(c)))
}

func (a *api) studentScheduleCSV(w http.ResponseWriter, r *http.Request) {
	c, err := a.loadStudent(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	a.writeCSV(w, export.StudentFileName, export.ToCSV(export.StudentColumns, export.GroupRows(c)))
}

func (a *api) professorScheduleCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := a.loadProfessor(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	a.writeCSV(w, export.ProfessorFileName, export.ToCSV(export.ProfessorColumns, export.ProfessorRows(rows)))
}

func (a *api) loadFormation(r *http.Request) (schedule.Collection, error) {
	q := r.URL.Query()
	formationID, err := required(q.Get("formation_id"), "formation_id")
	if err != nil {
		return nil, err
	}
	annee, err := required(q.Get("annee"), "annee")
	if err != nil {
		return nil, err
	}
	periodID, err := optionalPeriod(q.Get("periode_id"))
	if err != nil {
		return nil, err
	}
	body, err := a.planner.FormationSchedule(r.Context(), formationID, annee, periodID)
	if err != nil {
		return nil, err
	}
	return schedule.RegroupIfFlat(body)
}

func (a *api) loadStudent(r *http.Request) (schedule.Collection, error) {
	q := r.URL.Query()
	studentID, err := required(q.Get("student_id"), "student_id")
	if err != nil {
		return nil, err
	}
	periodID, err := optionalPeriod(q.Get("periode_id"))
	if err != nil {
		return nil, err
	}
	body, err := a.planner.StudentSchedule(r.Context(), studentID, periodID)
	if err != nil {
		return nil, err
	}
	return schedule.RegroupIfFlat(body)
}

func (a *api) loadProfessor(r *http.Request) ([]schedule.ExamAssignment, error) {
	q := r.URL.Query()
	profID, err := required(q.Get("prof_id"), "prof_id")
	if err != nil {
		return nil, err
	}
	body, err := a.planner.ProfessorSchedule(r.Context(), profID,
		strings.TrimSpace(q.Get("date_start")), strings.TrimSpace(q.Get("date_end")))
	if err != nil {
		return nil, err
	}
	return schedule.DecodeAssignments(body)
}

func (a *api) writeCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		a.log.Error("write_response_failed", slog.Any("err", err))
	}
}

func required(raw, name string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", badRequest{msg: name + " is required"}
	}
	return v, nil
}

func optionalPeriod(raw string) (int64, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, nil
	}
	return parsePeriod(v)
}
