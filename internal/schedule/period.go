// v0
// internal/schedule/period.go
package schedule

import (
	"strconv"
	"strings"
	"time"
)

// Period describes one examination session as listed by the planner.
type Period struct {
	ID          int64  `json:"id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	HasPlanning bool   `json:"hasPlanning"`
}

// Label renders the selector text used by the portals, e.g.
// "Session normale (12/01/2026 → 25/01/2026)".
func (p Period) Label() string {
	name := strings.TrimSpace(p.Description)
	if name == "" {
		name = "Période " + strconv.FormatInt(p.ID, 10)
	}
	return name + " (" + frenchDate(p.Start) + " → " + frenchDate(p.End) + ")"
}

func frenchDate(raw string) string {
	key := DateKey(raw)
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return ""
	}
	return t.Format("02/01/2006")
}
