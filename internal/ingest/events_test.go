// v0
// internal/ingest/events_test.go
package ingest

import (
	"testing"
	"time"
)

func TestDecodePlanEvent(t *testing.T) {
	ev, err := decodePlanEvent([]byte(`{"periodeId":3,"action":"Generated","at":"2026-01-10T08:00:00Z","elapsed_seconds":12.4}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.PeriodID != 3 || ev.Action != ActionGenerated {
		t.Fatalf("unexpected event %+v", ev)
	}
	if !ev.At.Equal(time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", ev.At)
	}
}

func TestDecodePlanEventTolerantForms(t *testing.T) {
	cases := map[string]PlanEvent{
		`{"periodeId":"7","action":"deleted"}`:           {PeriodID: 7, Action: ActionDeleted},
		`{"id_periode":4}`:                               {PeriodID: 4, Action: ActionGenerated},
		`{"periodeId":5,"at":1767254400000}`:             {PeriodID: 5, Action: ActionGenerated, At: time.UnixMilli(1767254400000).UTC()},
		`{"periodeId":6,"at":null,"action":"  DELETED "}`: {PeriodID: 6, Action: ActionDeleted},
	}
	for raw, want := range cases {
		got, err := decodePlanEvent([]byte(raw))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", raw, err)
		}
		if got.PeriodID != want.PeriodID || got.Action != want.Action || !got.At.Equal(want.At) {
			t.Fatalf("%s: got %+v, want %+v", raw, got, want)
		}
	}
}

func TestDecodePlanEventRejects(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"action":"generated"}`,
		`{"periodeId":0}`,
		`{"periodeId":"abc"}`,
		`{"periodeId":2.5}`,
		`{"periodeId":3,"at":"yesterday"}`,
	} {
		if _, err := decodePlanEvent([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", raw)
		}
	}
}
