// v0
// internal/schedule/regroup.go
package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPayload reports a schedule body that is not valid JSON or not
// one of the accepted shapes.
var ErrMalformedPayload = errors.New("malformed schedule payload")

// groupWire mirrors a pre-grouped entry as served by the upstream schedule
// endpoint: {"label": "...", "type": "split", "exams": [...]}.
type groupWire struct {
	Label          string          `json:"label"`
	Key            string          `json:"key"`
	FullGroupLabel string          `json:"FullGroupLabel"`
	Type           string          `json:"type"`
	Exams          []RawAssignment `json:"exams"`
}

// RegroupIfFlat normalizes any schedule body the upstream may return into a
// Collection. Accepted shapes:
//
//   - null or an empty body
//   - a flat array of assignment records
//   - an array of pre-grouped objects carrying an "exams" array
//   - an object keyed by group label whose values are pre-grouped objects
//
// Object key order is preserved. Zero rows and zero groups both produce the
// same empty collection.
func RegroupIfFlat(data []byte) (Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return make(Collection, 0), nil
	}
	switch trimmed[0] {
	case '[':
		return regroupArray(trimmed)
	case '{':
		return regroupObject(trimmed)
	default:
		return nil, fmt.Errorf("%w: expected array or object, got %q", ErrMalformedPayload, trimmed[0])
	}
}

func regroupArray(data []byte) (Collection, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	b := newBuilder()
	for i, item := range items {
		var fields RawAssignment
		if err := decodeNumbers(item, &fields); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedPayload, i, err)
		}
		if fields == nil {
			continue
		}
		if _, grouped := fields["exams"]; grouped {
			var gw groupWire
			if err := decodeNumbers(item, &gw); err != nil {
				return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedPayload, i, err)
			}
			b.addGroup("", gw)
			continue
		}
		b.addExam(Normalize(fields))
	}
	return b.finish(), nil
}

func regroupObject(data []byte) (Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	b := newBuilder()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		objKey, _ := tok.(string)
		var gw groupWire
		if err := dec.Decode(&gw); err != nil {
			return nil, fmt.Errorf("%w: group %q: %v", ErrMalformedPayload, objKey, err)
		}
		b.addGroup(objKey, gw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return b.finish(), nil
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// builder accumulates groups in first-seen order and merges duplicate keys.
type builder struct {
	out   Collection
	index map[string]int
}

func newBuilder() *builder {
	return &builder{out: make(Collection, 0), index: make(map[string]int)}
}

func (b *builder) ensure(key string) int {
	if pos, ok := b.index[key]; ok {
		return pos
	}
	pos := len(b.out)
	b.index[key] = pos
	b.out = append(b.out, Group{Key: key, Classification: ClassNormal})
	return pos
}

func (b *builder) addExam(a ExamAssignment) {
	pos := b.ensure(a.GroupKey())
	if a.IsSplit() {
		b.out[pos].Classification = ClassSplit
	}
	b.out[pos].Exams = append(b.out[pos].Exams, a)
}

func (b *builder) addGroup(objKey string, gw groupWire) {
	key := firstNonEmpty(gw.Label, objKey, gw.Key, gw.FullGroupLabel)
	if key == "" {
		key = FallbackGroupKey
	}
	pos := b.ensure(key)
	if strings.EqualFold(strings.TrimSpace(gw.Type), string(ClassSplit)) {
		b.out[pos].Classification = ClassSplit
	}
	for _, raw := range gw.Exams {
		if raw == nil {
			continue
		}
		a := Normalize(raw)
		if a.IsSplit() {
			b.out[pos].Classification = ClassSplit
		}
		b.out[pos].Exams = append(b.out[pos].Exams, a)
	}
}

func (b *builder) finish() Collection {
	for i := range b.out {
		sortExams(b.out[i].Exams)
	}
	return b.out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// DecodeAssignments normalizes a flat array of assignment records, keeping
// input order. Null elements are skipped; null or an empty body yields an
// empty slice.
func DecodeAssignments(data []byte) ([]ExamAssignment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []ExamAssignment{}, nil
	}
	var raws []RawAssignment
	if err := decodeNumbers(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	out := make([]ExamAssignment, 0, len(raws))
	for _, r := range raws {
		if r != nil {
			out = append(out, Normalize(r))
		}
	}
	return out, nil
}
