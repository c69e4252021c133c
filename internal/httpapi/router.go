// v1
// internal/httpapi/router.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"projetbda/analytics/internal/dashboard"
	"projetbda/analytics/internal/metrics"
	"projetbda/analytics/internal/planner"
	"projetbda/analytics/internal/ranking"
	"projetbda/analytics/internal/schedule"
)

// Planner is the subset of *planner.Client used by the HTTP handlers.
type Planner interface {
	Periods(ctx context.Context) ([]schedule.Period, error)
	Professors(ctx context.Context) ([]planner.Professor, error)
	FormationSchedule(ctx context.Context, formationID, annee string, periodID int64) (json.RawMessage, error)
	StudentSchedule(ctx context.Context, studentID string, periodID int64) (json.RawMessage, error)
	ProfessorSchedule(ctx context.Context, profID, from, to string) (json.RawMessage, error)
	RoomConflicts(ctx context.Context, periodID int64) ([]ranking.RoomConflict, error)
}

// Dashboards builds the per-period operations view. *dashboard.Service
// satisfies it.
type Dashboards interface {
	Build(ctx context.Context, periodID int64) dashboard.Dashboard
}

// Deps groups what the router needs. Metrics may be nil.
type Deps struct {
	Logger     *slog.Logger
	Health     *HealthState
	Planner    Planner
	Dashboards Dashboards
	Metrics    *metrics.Metrics
}

type api struct {
	log        *slog.Logger
	planner    Planner
	dashboards Dashboards
}

// NewRouter wires every route exposed by the analytics service.
func NewRouter(d Deps) (*mux.Router, error) {
	if d.Planner == nil {
		return nil, errors.New("planner must not be nil")
	}
	if d.Dashboards == nil {
		return nil, errors.New("dashboards must not be nil")
	}
	if d.Health == nil {
		d.Health = NewHealthState()
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &api{log: logger, planner: d.Planner, dashboards: d.Dashboards}

	r := mux.NewRouter()
	get := func(path string, h http.HandlerFunc) {
		r.Handle(path, d.Metrics.WrapHandler(path, h)).Methods(http.MethodGet)
	}

	r.Handle("/health", healthLiveHandler()).Methods(http.MethodGet)
	r.Handle("/health/live", healthLiveHandler()).Methods(http.MethodGet)
	r.Handle("/health/ready", healthReadyHandler(d.Health)).Methods(http.MethodGet)
	r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)

	get("/api/periodes", a.periods)
	get("/api/periodes/{id}/conflicts/rooms", a.roomConflicts)
	get("/api/professeurs", a.professors)
	get("/api/schedule", a.formationSchedule)
	get("/api/student_schedule", a.studentSchedule)
	get("/api/prof_schedule", a.professorSchedule)
	get("/api/schedule.csv", a.formationScheduleCSV)
	get("/api/student_schedule.csv", a.studentScheduleCSV)
	get("/api/prof_schedule.csv", a.professorScheduleCSV)
	get("/api/dashboard", a.dashboard)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if _, err := w.Write([]byte("not found")); err != nil {
			logger.Error("write_response_failed", slog.Any("err", err))
		}
	})
	return r, nil
}

func healthLiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func healthReadyHandler(health *HealthState) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !health.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
