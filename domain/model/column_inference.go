package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// missingValues are the cell spellings treated as null when inferring types
// and inserting rows.
var missingValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a cell holds no value.
func IsMissing(value string) bool {
	_, ok := missingValues[strings.TrimSpace(value)]
	return ok
}

// parseNumber parses a decimal number. Hex and other Go-only syntaxes are rejected.
func parseNumber(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if strings.ContainsAny(value, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// isNumericColumn reports whether every non-missing value is a number.
// A column without values counts as numeric.
func isNumericColumn(values []string) bool {
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		if _, ok := parseNumber(v); !ok {
			return false
		}
	}
	return true
}

// InferColumnType infers the SQL column type of a column.
//
// A numeric column whose non-missing values are all whole numbers is
// INTEGER, a numeric column with any fractional value is REAL, anything
// else is TEXT. A numeric column with no values at all is INTEGER.
func InferColumnType(values []string, kind ValueKind) ColumnType {
	switch kind {
	case ValueKindText:
		return ColumnTypeText
	case ValueKindUnknown:
		if !isNumericColumn(values) {
			return ColumnTypeText
		}
	}

	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		f, ok := parseNumber(v)
		if !ok {
			// declared numeric but holding text
			return ColumnTypeText
		}
		if !isWhole(f) {
			return ColumnTypeReal
		}
	}
	return ColumnTypeInteger
}

// InferSchema infers one column type per dataset column, in column order.
// Column names have spaces replaced with underscores.
func InferSchema(d *Dataset) (InferredSchema, error) {
	if d == nil || len(d.Header) == 0 {
		return nil, ErrNoColumns
	}

	seen := make(map[string]struct{}, len(d.Header))
	schema := make(InferredSchema, 0, len(d.Header))
	for i, name := range d.Header {
		name = SanitizeColumnName(strings.TrimSpace(name))
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumnName, name)
		}
		seen[name] = struct{}{}
		schema = append(schema, ColumnSpec{
			Name: name,
			Type: InferColumnType(d.Column(i), d.Kind(i)).String(),
		})
	}
	return schema, nil
}

// ConvertValue converts a cell to the Go value stored for a column type.
// Missing cells become nil.
func ConvertValue(value string, columnType string) any {
	if IsMissing(value) {
		return nil
	}
	switch columnType {
	case sqlTypeInteger:
		if f, ok := parseNumber(value); ok && isWhole(f) && math.Abs(f) < 1<<63 {
			return int64(f)
		}
	case sqlTypeReal:
		if f, ok := parseNumber(value); ok {
			return f
		}
	}
	return value
}
