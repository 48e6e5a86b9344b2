package model

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NoTablesMarker is the schema text of an empty store.
const NoTablesMarker = "No tables found in the database."

// noSampleData replaces the samples of a table whose sample query failed.
const noSampleData = "No data available"

// SampleLimit is the number of sample rows captured per table.
const SampleLimit = 3

// ColumnDescriptor is one column of an existing table.
type ColumnDescriptor struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableDescriptor is one table of a schema snapshot.
type TableDescriptor struct {
	Name    string
	Columns []ColumnDescriptor
	Sample  *ResultSet
	// SampleErr is set when the sample rows could not be read.
	SampleErr error
}

// Schema returns the table's columns as a schema.
func (t TableDescriptor) Schema() InferredSchema {
	schema := make(InferredSchema, len(t.Columns))
	for i, c := range t.Columns {
		schema[i] = ColumnSpec{Name: c.Name, Type: c.Type}
	}
	return schema
}

// SchemaSnapshot is the store's tables at one point in time.
type SchemaSnapshot struct {
	Tables []TableDescriptor
}

// TableNames returns the table names in order.
func (s *SchemaSnapshot) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Text renders the snapshot for a prompt.
func (s *SchemaSnapshot) Text() string {
	if s == nil || len(s.Tables) == 0 {
		return NoTablesMarker
	}

	blocks := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		var b strings.Builder
		fmt.Fprintf(&b, "Table: %s\nColumns:\n", t.Name)
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "  - %s (%s)", c.Name, c.Type)
			if c.PrimaryKey {
				b.WriteString(" (Primary Key)")
			}
			b.WriteString("\n")
		}
		b.WriteString("\nSample data:\n")
		if t.SampleErr != nil || t.Sample == nil {
			b.WriteString(noSampleData)
		} else {
			b.WriteString(renderSample(t.Sample))
		}
		b.WriteString("\n")
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

// renderSample renders sample rows as an aligned, borderless table.
func renderSample(rs *ResultSet) string {
	if rs.Len() == 0 {
		return fmt.Sprintf("(no rows; columns: %s)", strings.Join(rs.Columns, ", "))
	}

	t := table.NewWriter()
	style := table.StyleDefault
	style.Options = table.OptionsNoBordersAndSeparators
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)

	header := make(table.Row, len(rs.Columns))
	for i, c := range rs.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, r := range rs.Records() {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}
	return t.Render()
}
