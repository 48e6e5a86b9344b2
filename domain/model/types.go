// Package model provides domain model for chatsheet
package model

import (
	"fmt"
	"strings"
)

// Header is dataset header.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Record is dataset row.
type Record []string

// NewRecord create new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// ColumnType represents the SQL column type of an ingested column
type ColumnType int

const (
	// ColumnTypeText represents TEXT column type
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger represents INTEGER column type
	ColumnTypeInteger
	// ColumnTypeReal represents REAL column type
	ColumnTypeReal
)

const (
	sqlTypeText    = "TEXT"
	sqlTypeInteger = "INTEGER"
	sqlTypeReal    = "REAL"
)

// String returns the SQL column type string
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeInteger:
		return sqlTypeInteger
	case ColumnTypeReal:
		return sqlTypeReal
	default:
		return sqlTypeText
	}
}

// ValueKind is the storage kind a source declares for a column.
type ValueKind int

const (
	// ValueKindUnknown means the kind is derived from the values
	ValueKindUnknown ValueKind = iota
	// ValueKindNumeric is a column stored as numbers
	ValueKindNumeric
	// ValueKindText is a column stored as strings
	ValueKindText
)

// Dataset is a flat in-memory table read from a tabular file.
type Dataset struct {
	Header  Header
	Records []Record
	// Kinds optionally declares the storage kind of each column. A nil
	// slice or ValueKindUnknown entry means the kind is derived from values.
	Kinds []ValueKind
}

// NewDataset creates a Dataset. Short records are padded with empty cells.
func NewDataset(header Header, records []Record) *Dataset {
	padded := make([]Record, len(records))
	for i, r := range records {
		if len(r) >= len(header) {
			padded[i] = r[:len(header)]
			continue
		}
		row := make(Record, len(header))
		copy(row, r)
		padded[i] = row
	}
	return &Dataset{Header: header, Records: padded}
}

// Column returns every value of column i in row order.
func (d *Dataset) Column(i int) []string {
	values := make([]string, 0, len(d.Records))
	for _, r := range d.Records {
		if i < len(r) {
			values = append(values, r[i])
		} else {
			values = append(values, "")
		}
	}
	return values
}

// Kind returns the declared storage kind of column i.
func (d *Dataset) Kind(i int) ValueKind {
	if i < len(d.Kinds) {
		return d.Kinds[i]
	}
	return ValueKindUnknown
}

// ColumnSpec is one column of a schema.
type ColumnSpec struct {
	Name string
	Type string
}

// InferredSchema is an ordered column name to type mapping.
type InferredSchema []ColumnSpec

// Lookup returns the declared type of the named column.
func (s InferredSchema) Lookup(name string) (string, bool) {
	for _, c := range s {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// Names returns the column names in order.
func (s InferredSchema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// String renders the schema as "name TYPE, name TYPE".
func (s InferredSchema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
	}
	return strings.Join(parts, ", ")
}

// SanitizeColumnName replaces spaces with underscores.
func SanitizeColumnName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// TableName represents a table name
type TableName struct {
	value string
}

// NewTableName creates a new TableName. Blank names become "table".
func NewTableName(name string) TableName {
	if strings.TrimSpace(name) == "" {
		return TableName{value: "table"}
	}
	return TableName{value: strings.TrimSpace(name)}
}

// String returns the string representation of TableName
func (tn TableName) String() string {
	return tn.value
}

// Sanitize returns a version of the name limited to [A-Za-z0-9_]
// that does not start with a digit.
func (tn TableName) Sanitize() TableName {
	result := strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(tn.value)

	var sanitized strings.Builder
	for _, r := range result {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sanitized.WriteRune(r)
		}
	}

	finalResult := sanitized.String()
	if len(finalResult) > 0 && finalResult[0] >= '0' && finalResult[0] <= '9' {
		finalResult = "table_" + finalResult
	}
	if finalResult == "" {
		finalResult = "table"
	}
	return TableName{value: finalResult}
}

// QuoteIdentifier quotes a SQLite identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
