// v1
// internal/schedule/group.go
package schedule

import (
	"sort"
	"strings"
	"time"
)

// GroupAssignments partitions assignments into one Group per distinct key, in
// first-seen order. A group is split when any member carries a split marker.
// Exams inside a group are ordered by (date, start); equal keys keep their
// input order. Empty input yields an empty, non-nil collection.
func GroupAssignments(assignments []ExamAssignment) Collection {
	b := newBuilder()
	for _, a := range assignments {
		b.addExam(a)
	}
	return b.finish()
}

// Flatten returns every exam of the collection in group order.
func (c Collection) Flatten() []ExamAssignment {
	out := make([]ExamAssignment, 0, c.ExamCount())
	for _, g := range c {
		out = append(out, g.Exams...)
	}
	return out
}

func sortExams(exams []ExamAssignment) {
	if len(exams) < 2 {
		return
	}
	dates := make([]string, len(exams))
	for i := range exams {
		dates[i] = DateKey(exams[i].ExamDate)
	}
	// Sort an index permutation so the precomputed date keys travel with
	// their exams.
	idx := make([]int, len(exams))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if dates[a] != dates[b] {
			return dates[a] < dates[b]
		}
		return exams[a].Start < exams[b].Start
	})
	sorted := make([]ExamAssignment, len(exams))
	for i, k := range idx {
		sorted[i] = exams[k]
	}
	copy(exams, sorted)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02 15:04:05",
}

// DateKey returns the ISO calendar date for values in a known layout (ISO
// date, RFC3339, the RFC1123 form emitted by the upstream JSON encoder) and
// the raw text otherwise, so unparsable dates still sort deterministically.
func DateKey(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
