// v0
// internal/schedule/model.go
package schedule

// RoomType distinguishes regular rooms from amphitheaters.
type RoomType string

const (
	RoomSalle RoomType = "salle"
	RoomAmphi RoomType = "amphi"
)

// Classification labels how a group's sittings were handled by the planner.
type Classification string

const (
	ClassNormal Classification = "normal"
	ClassSplit  Classification = "split"
)

// FallbackGroupKey is used when a record carries neither a full label nor a
// group code.
const FallbackGroupKey = "Mon Groupe"

// ExamAssignment is one scheduled sitting for one group at one place/time.
// Every field is display text; absent upstream values are empty strings.
type ExamAssignment struct {
	PeriodID       string   `json:"periodId"`
	FormationID    string   `json:"formationId"`
	Annee          string   `json:"annee"`
	Module         string   `json:"module"`
	ExamDate       string   `json:"date"`
	DateLabel      string   `json:"dateLabel"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Duration       string   `json:"duration,omitempty"`
	Room           string   `json:"room"`
	Building       string   `json:"building"`
	RoomType       RoomType `json:"type,omitempty"`
	GroupCode      string   `json:"groupCode,omitempty"`
	FullGroupLabel string   `json:"fullGroupLabel,omitempty"`
	// SplitMarker is non-empty when the group's sitting was spread over
	// several rooms. The upstream sends the split part number.
	SplitMarker  string `json:"splitPart,omitempty"`
	MergedGroups string `json:"mergedGroups,omitempty"`
}

// IsSplit reports whether the assignment carries a split marker.
func (a ExamAssignment) IsSplit() bool { return a.SplitMarker != "" }

// GroupKey derives the group identity of the assignment.
func (a ExamAssignment) GroupKey() string {
	return groupKey(a.FullGroupLabel, a.GroupCode)
}

func groupKey(label, code string) string {
	if label != "" {
		return label
	}
	if code != "" {
		return code
	}
	return FallbackGroupKey
}

// Group gathers all assignments sharing one group identity. Exams are sorted
// by (date, start) and never reordered after construction.
type Group struct {
	Key            string           `json:"label"`
	Classification Classification   `json:"type"`
	Exams          []ExamAssignment `json:"exams"`
}

// Collection is the ordered set of groups produced by one grouping pass.
// Keys are unique and appear in first-seen order.
type Collection []Group

// Find returns the group stored under key.
func (c Collection) Find(key string) (Group, bool) {
	for _, g := range c {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// Keys lists the group keys in collection order.
func (c Collection) Keys() []string {
	out := make([]string, 0, len(c))
	for _, g := range c {
		out = append(out, g.Key)
	}
	return out
}

// ExamCount totals the exams across all groups.
func (c Collection) ExamCount() int {
	n := 0
	for _, g := range c {
		n += len(g.Exams)
	}
	return n
}
