// v0
// internal/export/csv.go
package export

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one record keyed by column name. Missing keys and nil values render
// as empty fields.
type Row map[string]any

// ToCSV renders rows as CSV text. The header is the column names joined by
// commas without quoting; every data field is quoted with inner quotes
// doubled. Lines are separated by "\n" with no trailing newline, so zero rows
// yield the header alone.
func ToCSV(columns []string, rows []Row) string {
	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	for _, row := range rows {
		b.WriteByte('\n')
		for i, col := range columns {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field(row[col]), `"`, `""`))
			b.WriteByte('"')
		}
	}
	return b.String()
}

func field(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
