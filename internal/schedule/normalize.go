// v1
// internal/schedule/normalize.go
package schedule

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RawAssignment is an assignment record as decoded from upstream JSON. Fields
// may be missing, null, empty or carry either wire spelling.
type RawAssignment map[string]any

// Wire aliases per field, first non-empty value wins. The upstream mixes SQL
// column aliases (DateLabel) with the regrouped camelCase form (dateLabel).
var (
	aliasPeriod    = []string{"periode_id", "period_id", "id_periode"}
	aliasFormation = []string{"formation_id", "id_formation"}
	aliasAnnee     = []string{"annee"}
	aliasModule    = []string{"Module", "module"}
	aliasDate      = []string{"exam_date", "date", "Date"}
	aliasDateLabel = []string{"DateLabel", "dateLabel"}
	aliasStart     = []string{"Start", "start"}
	aliasEnd       = []string{"End", "end"}
	aliasDuration  = []string{"Duration", "duration"}
	aliasRoom      = []string{"Room", "room"}
	aliasBuilding  = []string{"Building", "building"}
	aliasRoomType  = []string{"Type", "type", "room_type"}
	aliasGroupCode = []string{"GroupCode", "group_code", "groupCode"}
	aliasFullLabel = []string{"FullGroupLabel", "full_group_label", "fullGroupLabel", "GroupLabel"}
	aliasSplit     = []string{"SplitPart", "split_part", "splitPart", "split_marker"}
	aliasMerged    = []string{"MergedGroups", "merged_groups", "mergedGroups"}
)

// Normalize converts a loosely typed record into an ExamAssignment. It never
// fails: anything missing becomes an empty string and values are passed
// through without format validation.
func Normalize(raw RawAssignment) ExamAssignment {
	return ExamAssignment{
		PeriodID:       raw.text(aliasPeriod),
		FormationID:    raw.text(aliasFormation),
		Annee:          raw.text(aliasAnnee),
		Module:         raw.text(aliasModule),
		ExamDate:       raw.text(aliasDate),
		DateLabel:      raw.text(aliasDateLabel),
		Start:          raw.text(aliasStart),
		End:            raw.text(aliasEnd),
		Duration:       raw.text(aliasDuration),
		Room:           raw.text(aliasRoom),
		Building:       raw.text(aliasBuilding),
		RoomType:       RoomType(raw.text(aliasRoomType)),
		GroupCode:      raw.text(aliasGroupCode),
		FullGroupLabel: raw.text(aliasFullLabel),
		SplitMarker:    raw.marker(aliasSplit),
		MergedGroups:   raw.text(aliasMerged),
	}
}

// NormalizeAll normalizes every record, preserving input order.
func NormalizeAll(raws []RawAssignment) []ExamAssignment {
	out := make([]ExamAssignment, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

func (r RawAssignment) text(keys []string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

// marker reads a presence flag: null, "", false and 0 count as absent.
func (r RawAssignment) marker(keys []string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || !truthy(v) {
			continue
		}
		return stringify(v)
	}
	return ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}
