// v0
// internal/httpapi/dashboard.go
package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"projetbda/analytics/internal/dashboard"
	"projetbda/analytics/internal/ranking"
)

func (a *api) dashboard(w http.ResponseWriter, r *http.Request) {
	periodID, err := parsePeriod(r.URL.Query().Get("periode_id"))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeData(w, a.log, a.dashboards.Build(r.Context(), periodID))
}

func (a *api) roomConflicts(w http.ResponseWriter, r *http.Request) {
	periodID, err := parsePeriod(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	conflicts, err := a.planner.RoomConflicts(r.Context(), periodID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if conflicts == nil {
		conflicts = []ranking.RoomConflict{}
	}
	writeData(w, a.log, conflicts)
}

func parsePeriod(raw string) (int64, error) {
	id, err := dashboard.ParsePeriodID(strings.TrimSpace(raw))
	if err != nil {
		return 0, badRequest{msg: err.Error()}
	}
	return id, nil
}
