// v1
// internal/cache/keys.go
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// PeriodTag is the invalidation tag shared by every entry of one period.
func PeriodTag(periodID int64) string {
	return "periode:" + strconv.FormatInt(periodID, 10)
}

// DashboardKey identifies the dashboard view of a period.
func DashboardKey(periodID int64) string {
	return makeKey("dashboard", strconv.FormatInt(periodID, 10))
}

// BuildKey hashes a view kind with its query dimensions. Dimension order does
// not matter and surrounding whitespace is ignored.
func BuildKey(kind string, dims map[string]string) string {
	names := make([]string, 0, len(dims))
	for k := range dims {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names)+1)
	parts = append(parts, kind)
	for _, k := range names {
		parts = append(parts, k+"="+strings.TrimSpace(dims[k]))
	}
	return makeKey(parts...)
}

func makeKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	h := sha1.Sum([]byte(joined))
	return hex.EncodeToString(h[:])
}
