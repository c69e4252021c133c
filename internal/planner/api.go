// v0
// internal/planner/api.go
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"projetbda/analytics/internal/kpi"
	"projetbda/analytics/internal/ranking"
	"projetbda/analytics/internal/schedule"
)

func periodParam(periodID int64) url.Values {
	q := url.Values{}
	if periodID > 0 {
		q.Set("periode_id", strconv.FormatInt(periodID, 10))
	}
	return q
}

// Periods lists the examination sessions, most recent first.
func (c *Client) Periods(ctx context.Context) ([]schedule.Period, error) {
	raw, err := c.get(ctx, "/periodes", nil)
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[periodWire](raw, "/periodes")
	if err != nil {
		return nil, err
	}
	out := make([]schedule.Period, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// Professors lists every supervisor.
func (c *Client) Professors(ctx context.Context) ([]Professor, error) {
	raw, err := c.get(ctx, "/professeurs", nil)
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[professorWire](raw, "/professeurs")
	if err != nil {
		return nil, err
	}
	out := make([]Professor, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// FormationSchedule returns the raw schedule body of one formation year. The
// planner may answer with any shape accepted by schedule.RegroupIfFlat.
func (c *Client) FormationSchedule(ctx context.Context, formationID, annee string, periodID int64) (json.RawMessage, error) {
	q := periodParam(periodID)
	q.Set("formation_id", formationID)
	q.Set("annee", annee)
	return c.get(ctx, "/schedule", q)
}

// StudentSchedule returns the raw schedule body of one student.
func (c *Client) StudentSchedule(ctx context.Context, studentID string, periodID int64) (json.RawMessage, error) {
	q := periodParam(periodID)
	q.Set("student_id", studentID)
	return c.get(ctx, "/student_schedule", q)
}

// ProfessorSchedule returns the raw supervision rows of one professor between
// two ISO dates.
func (c *Client) ProfessorSchedule(ctx context.Context, profID, from, to string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("prof_id", profID)
	q.Set("date_start", from)
	q.Set("date_end", to)
	return c.get(ctx, "/prof_schedule", q)
}

// KPIs returns the planning counters for a period.
func (c *Client) KPIs(ctx context.Context, periodID int64) (kpi.Snapshot, error) {
	raw, err := c.get(ctx, "/dashboard/kpis", periodParam(periodID))
	if err != nil {
		return kpi.Snapshot{}, err
	}
	var w kpiWire
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &w); err != nil {
			return kpi.Snapshot{}, fmt.Errorf("%w: decode /dashboard/kpis: %v", ErrUpstream, err)
		}
	}
	return w.toDomain(), nil
}

// RoomDistribution returns sittings per room type.
func (c *Client) RoomDistribution(ctx context.Context, periodID int64) ([]kpi.RoomTypeUsage, error) {
	raw, err := c.get(ctx, "/dashboard/room_distribution", periodParam(periodID))
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[roomTypeWire](raw, "/dashboard/room_distribution")
	if err != nil {
		return nil, err
	}
	out := make([]kpi.RoomTypeUsage, 0, len(wires))
	for _, w := range wires {
		out = append(out, kpi.RoomTypeUsage{RoomType: string(w.Type), UsageCount: int64(w.UsageCount)})
	}
	return out, nil
}

// TopRooms returns per-room usage, unranked.
func (c *Client) TopRooms(ctx context.Context, periodID int64) ([]ranking.RoomUsage, error) {
	raw, err := c.get(ctx, "/dashboard/top_rooms", periodParam(periodID))
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[topRoomWire](raw, "/dashboard/top_rooms")
	if err != nil {
		return nil, err
	}
	out := make([]ranking.RoomUsage, 0, len(wires))
	for _, w := range wires {
		out = append(out, ranking.RoomUsage{Name: string(w.Name), RoomType: string(w.Type), UsageCount: int64(w.Sessions)})
	}
	return out, nil
}

// ProfessorLoad returns supervision totals per professor, unranked.
func (c *Client) ProfessorLoad(ctx context.Context, periodID int64) ([]ranking.ProfessorLoad, error) {
	raw, err := c.get(ctx, "/dashboard/prof_load", periodParam(periodID))
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[profLoadWire](raw, "/dashboard/prof_load")
	if err != nil {
		return nil, err
	}
	out := make([]ranking.ProfessorLoad, 0, len(wires))
	for _, w := range wires {
		out = append(out, ranking.ProfessorLoad{Name: string(w.Name), Department: string(w.Dept), TotalSupervisions: int64(w.Total)})
	}
	return out, nil
}

// ProfessorConflicts returns the professor overlaps detected by the planner.
func (c *Client) ProfessorConflicts(ctx context.Context, periodID int64) ([]ranking.Conflict, error) {
	raw, err := c.get(ctx, "/dashboard/prof_conflicts", periodParam(periodID))
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[profConflictWire](raw, "/dashboard/prof_conflicts")
	if err != nil {
		return nil, err
	}
	out := make([]ranking.Conflict, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// RoomConflicts returns rooms double-booked within a period.
func (c *Client) RoomConflicts(ctx context.Context, periodID int64) ([]ranking.RoomConflict, error) {
	path := "/periodes/" + strconv.FormatInt(periodID, 10) + "/conflicts/rooms"
	raw, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[roomConflictWire](raw, path)
	if err != nil {
		return nil, err
	}
	out := make([]ranking.RoomConflict, 0, len(wires))
	for _, w := range wires {
		out = append(out, ranking.RoomConflict{Room: string(w.Room), Date: string(w.Date), Start: string(w.Start), Exams: int64(w.Exams)})
	}
	return out, nil
}
