// v0
// internal/httpapi/router_test.go
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"projetbda/analytics/internal/dashboard"
	"projetbda/analytics/internal/metrics"
	"projetbda/analytics/internal/planner"
	"projetbda/analytics/internal/ranking"
	"projetbda/analytics/internal/schedule"
)

type fakePlanner struct {
	periods   []schedule.Period
	profs     []planner.Professor
	formation json.RawMessage
	student   json.RawMessage
	prof      json.RawMessage
	rooms     []ranking.RoomConflict
	err       error

	gotStudent string
	gotPeriod  int64
	gotFrom    string
}

func (f *fakePlanner) Periods(context.Context) ([]schedule.Period, error) {
	return f.periods, f.err
}

func (f *fakePlanner) Professors(context.Context) ([]planner.Professor, error) {
	return f.profs, f.err
}

func (f *fakePlanner) FormationSchedule(_ context.Context, _, _ string, periodID int64) (json.RawMessage, error) {
	f.gotPeriod = periodID
	return f.formation, f.err
}

func (f *fakePlanner) StudentSchedule(_ context.Context, studentID string, periodID int64) (json.RawMessage, error) {
	f.gotStudent, f.gotPeriod = studentID, periodID
	return f.student, f.err
}

func (f *fakePlanner) ProfessorSchedule(_ context.Context, _, from, _ string) (json.RawMessage, error) {
	f.gotFrom = from
	return f.prof, f.err
}

func (f *fakePlanner) RoomConflicts(_ context.Context, periodID int64) ([]ranking.RoomConflict, error) {
	f.gotPeriod = periodID
	return f.rooms, f.err
}

type fakeDashboards struct{ built []int64 }

func (f *fakeDashboards) Build(_ context.Context, periodID int64) dashboard.Dashboard {
	f.built = append(f.built, periodID)
	return dashboard.Dashboard{PeriodID: periodID}
}

func newTestServer(t *testing.T, p *fakePlanner, d *fakeDashboards) (http.Handler, *HealthState) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	health := NewHealthState()
	router, err := NewRouter(Deps{Logger: logger, Health: health, Planner: p, Dashboards: d, Metrics: metrics.New()})
	require.NoError(t, err)
	return Wrap(logger, []string{"*"}, router), health
}

func emptyServer(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newTestServer(t, &fakePlanner{}, &fakeDashboards{})
	return h
}

func do(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthEndpoints(t *testing.T) {
	h, health := newTestServer(t, &fakePlanner{}, &fakeDashboards{})

	rec, _ := do(t, h, "/health/live")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	health.SetReady(true)
	rec, _ = do(t, h, "/health/ready")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPeriodsCarryLabels(t *testing.T) {
	p := &fakePlanner{periods: []schedule.Period{{ID: 3, Start: "2026-01-12", End: "2026-01-25"}}}
	h, _ := newTestServer(t, p, &fakeDashboards{})

	rec, env := do(t, h, "/api/periodes")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.OK)
	list := env.Data.([]any)
	require.Len(t, list, 1)
	require.Equal(t, "Période 3 (12/01/2026 → 25/01/2026)", list[0].(map[string]any)["label"])
}

func TestProfessorsListed(t *testing.T) {
	p := &fakePlanner{profs: []planner.Professor{{ID: 4, Name: "Dupont", Specialty: "Réseaux", DepartmentID: 2}}}
	h, _ := newTestServer(t, p, &fakeDashboards{})

	rec, env := do(t, h, "/api/professeurs")
	require.Equal(t, http.StatusOK, rec.Code)
	list := env.Data.([]any)
	require.Len(t, list, 1)
	prof := list[0].(map[string]any)
	require.Equal(t, "Dupont", prof["name"])
	require.Equal(t, float64(4), prof["id"])

	rec, env = do(t, emptyServer(t), "/api/professeurs")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{}, env.Data)
}

func TestStudentScheduleGroupsFlatRows(t *testing.T) {
	p := &fakePlanner{student: json.RawMessage(`[
		{"exam_date":"2026-01-13","Start":"09:00","Module":"Algo","FullGroupLabel":"L3 G1"},
		{"exam_date":"2026-01-12","Start":"09:00","Module":"BDD","FullGroupLabel":"L3 G1"}
	]`)}
	h, _ := newTestServer(t, p, &fakeDashboards{})

	rec, env := do(t, h, "/api/student_schedule?student_id=42&periode_id=3")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "42", p.gotStudent)
	require.Equal(t, int64(3), p.gotPeriod)
	groups := env.Data.([]any)
	require.Len(t, groups, 1)
	exams := groups[0].(map[string]any)["exams"].([]any)
	require.Equal(t, "BDD", exams[0].(map[string]any)["module"])
}

func TestStudentScheduleCSV(t *testing.T) {
	p := &fakePlanner{student: json.RawMessage(`[
		{"DateLabel":"Monday, January 12","Start":"09:00","End":"10:30","Module":"BDD","Room":"A1","Building":"C","FullGroupLabel":"L3 G1"}
	]`)}
	h, _ := newTestServer(t, p, &fakeDashboards{})

	rec, _ := do(t, h, "/api/student_schedule.csv?student_id=42")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="student_schedule.csv"`, rec.Header().Get("Content-Disposition"))
	require.Equal(t,
		"DateLabel,Start,End,Module,Room,Building,FullGroupLabel\n"+
			`"Monday, January 12","09:00","10:30","BDD","A1","C","L3 G1"`,
		rec.Body.String())
}

func TestProfessorScheduleCSVHeaderOnlyWhenEmpty(t *testing.T) {
	p := &fakePlanner{prof: json.RawMessage(`[]`)}
	h, _ := newTestServer(t, p, &fakeDashboards{})

	rec, _ := do(t, h, "/api/prof_schedule.csv?prof_id=7&date_start=2026-01-01")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2026-01-01", p.gotFrom)
	require.Equal(t, `attachment; filename="prof_schedule.csv"`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, "DateLabel,Start,End,Module,Room,Building,GroupLabel", rec.Body.String())
}

func TestDashboardRequiresPeriod(t *testing.T) {
	d := &fakeDashboards{}
	h, _ := newTestServer(t, &fakePlanner{}, d)

	rec, env := do(t, h, "/api/dashboard")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.OK)
	require.NotEmpty(t, env.Error)

	rec, env = do(t, h, "/api/dashboard?periode_id=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.OK)
	require.Equal(t, []int64{5}, d.built)
}

func TestRoomConflictsPathVariable(t *testing.T) {
	p := &fakePlanner{}
	h, _ := newTestServer(t, p, &fakeDashboards{})

	rec, env := do(t, h, "/api/periodes/9/conflicts/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(9), p.gotPeriod)
	require.Equal(t, []any{}, env.Data)

	rec, _ = do(t, h, "/api/periodes/abc/conflicts/rooms")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"upstream", &planner.APIError{Endpoint: "/periodes", Status: 500}, http.StatusBadGateway},
		{"breaker", fmt.Errorf("%w: planner down", planner.ErrCircuitBreakerOpen), http.StatusServiceUnavailable},
		{"malformed", fmt.Errorf("%w: bad", schedule.ErrMalformedPayload), http.StatusUnprocessableEntity},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestServer(t, &fakePlanner{err: tc.err}, &fakeDashboards{})
			rec, env := do(t, h, "/api/periodes")
			require.Equal(t, tc.want, rec.Code)
			require.False(t, env.OK)
		})
	}
}

func TestMalformedScheduleIs422(t *testing.T) {
	h, _ := newTestServer(t, &fakePlanner{formation: json.RawMessage(`"oops"`)}, &fakeDashboards{})
	rec, _ := do(t, h, "/api/schedule?formation_id=1&annee=L3")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRequestIDEchoedOrMinted(t *testing.T) {
	h, _ := newTestServer(t, &fakePlanner{}, &fakeDashboards{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestPanicIsRecovered(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Wrap(logger, []string{"*"}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	h, _ := newTestServer(t, &fakePlanner{}, &fakeDashboards{})
	rec, _ := do(t, h, "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
