package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ResultSet is the output of one query: column names and rows in store order.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Records returns every row as formatted strings.
func (rs *ResultSet) Records() []Record {
	records := make([]Record, 0, rs.Len())
	for _, row := range rs.Rows {
		r := make(Record, len(row))
		for i, v := range row {
			r[i] = FormatValue(v)
		}
		records = append(records, r)
	}
	return records
}

// Maps returns every row as a column name to value map.
func (rs *ResultSet) Maps() []map[string]any {
	out := make([]map[string]any, 0, rs.Len())
	for _, row := range rs.Rows {
		m := make(map[string]any, len(rs.Columns))
		for i, col := range rs.Columns {
			if i < len(row) {
				m[col] = normalizeValue(row[i])
			}
		}
		out = append(out, m)
	}
	return out
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// FormatValue renders one scalar the way it appears in rendered text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.DateTime)
	default:
		return fmt.Sprint(val)
	}
}

// formatFloat always keeps a decimal point or exponent so 3 and 3.0 stay
// distinguishable.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
