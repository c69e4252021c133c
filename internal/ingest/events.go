// v0
// internal/ingest/events.go
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Plan event actions published by the planner.
const (
	ActionGenerated = "generated"
	ActionDeleted   = "deleted"
)

// PlanEvent announces that the planning of a period changed.
type PlanEvent struct {
	PeriodID int64
	Action   string
	At       time.Time
}

type planEnvelope struct {
	PeriodID json.RawMessage `json:"periodeId"`
	Legacy   json.RawMessage `json:"id_periode"`
	Action   string          `json:"action"`
	At       json.RawMessage `json:"at"`
}

// decodePlanEvent extracts a PlanEvent from a message value, tolerating
// numeric or string identifiers and unknown extra fields. Unknown actions are
// kept as-is; a missing action defaults to ActionGenerated.
func decodePlanEvent(raw []byte) (PlanEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var env planEnvelope
	if err := dec.Decode(&env); err != nil {
		return PlanEvent{}, fmt.Errorf("decode plan event: %w", err)
	}
	idRaw := env.PeriodID
	if len(idRaw) == 0 {
		idRaw = env.Legacy
	}
	id, err := parsePeriodID(idRaw)
	if err != nil {
		return PlanEvent{}, err
	}
	action := strings.ToLower(strings.TrimSpace(env.Action))
	if action == "" {
		action = ActionGenerated
	}
	at, err := parseAt(env.At)
	if err != nil {
		return PlanEvent{}, err
	}
	return PlanEvent{PeriodID: id, Action: action, At: at}, nil
}

func parsePeriodID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("periodeId missing")
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if id, err := asNumber.Int64(); err == nil && id > 0 {
			return id, nil
		}
		return 0, fmt.Errorf("periodeId %s is not a positive integer", asNumber)
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		id, err := strconv.ParseInt(strings.TrimSpace(asString), 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("periodeId %q is not a positive integer", asString)
		}
		return id, nil
	}
	return 0, errors.New("periodeId format not recognized")
}

// parseAt accepts RFC3339 strings or Unix milliseconds. Absent means zero.
func parseAt(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		trimmed := strings.TrimSpace(asString)
		if trimmed == "" {
			return time.Time{}, nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
			return ts.UTC(), nil
		}
		if millis, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return time.UnixMilli(millis).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("unsupported at %q", trimmed)
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if millis, err := asNumber.Int64(); err == nil {
			return time.UnixMilli(millis).UTC(), nil
		}
	}
	return time.Time{}, errors.New("at format not recognized")
}
