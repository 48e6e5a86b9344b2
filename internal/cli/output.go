package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/chatsheet"
	"github.com/nao1215/chatsheet/domain/model"
	"github.com/nao1215/chatsheet/internal/config"
)

// renderer writes command results as tables or JSON.
type renderer struct {
	w      io.Writer
	format string
}

func newRenderer(w io.Writer, format string) *renderer {
	if format == "" {
		format = config.OutputTable
	}
	return &renderer{w: w, format: format}
}

func (r *renderer) isJSON() bool {
	return r.format == config.OutputJSON
}

func (r *renderer) encode(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

// resultSet renders query rows.
func (r *renderer) resultSet(rs *model.ResultSet) error {
	if r.isJSON() {
		return r.encode(rs.Maps())
	}
	r.resultTable(rs)
	return nil
}

func (r *renderer) resultTable(rs *model.ResultSet) {
	if rs.Len() == 0 {
		r.printf("(0 rows)\n")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, record := range rs.Records() {
		row := make(table.Row, len(record))
		for i, v := range record {
			row[i] = v
		}
		t.AppendRow(row)
	}

	t.Render()
	r.printf("(%d rows)\n", rs.Len())
}

// answerOutput is the JSON form of an answer.
type answerOutput struct {
	*chatsheet.Answer
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func newAnswerOutput(a *chatsheet.Answer, renderErr error) answerOutput {
	out := answerOutput{Answer: a}
	if a.Result != nil {
		out.Columns = a.Result.Columns
		out.Rows = a.Result.Maps()
	}
	if renderErr != nil {
		out.Error = renderErr.Error()
	}
	return out
}

// answer renders a translated or executed request. renderErr is the render
// failure returned alongside the answer, if any.
func (r *renderer) answer(a *chatsheet.Answer, renderErr error) error {
	if r.isJSON() {
		return r.encode(newAnswerOutput(a, renderErr))
	}

	r.printf("\nGenerated SQL query: %s\n", a.SQL)
	if a.Result == nil {
		r.printf("\nOperation executed successfully.\n")
		r.printf("\nMessage:\n%s\n", a.Text)
	} else {
		r.printf("\nRaw Query Results:\n")
		r.resultTable(a.Result)
		r.printf("\nIn plain English:\n%s\n", a.Text)
	}

	for _, key := range a.Substituted {
		r.printf("Warning: Missing key '%s' in template, shown as %s\n", key, model.UnknownMarker)
	}
	var e *chatsheet.Error
	if renderErr != nil && errors.As(renderErr, &e) {
		r.printf("Template: %s\n", e.Template)
		r.printf("Available keys: %s\n", strings.Join(e.AvailableKeys, ", "))
	}
	return nil
}

// ingestion renders the outcome of a load.
func (r *renderer) ingestion(path string, res *chatsheet.IngestResult) error {
	if r.isJSON() {
		return r.encode(struct {
			File     string   `json:"file"`
			Table    string   `json:"table"`
			Rows     int      `json:"rows"`
			Replaced bool     `json:"replaced"`
			Action   string   `json:"action,omitempty"`
			Schema   string   `json:"schema"`
			Conflict []string `json:"conflicts,omitempty"`
		}{
			File:     path,
			Table:    res.Table,
			Rows:     res.Rows,
			Replaced: res.Replaced,
			Action:   string(res.Action),
			Schema:   res.Schema.String(),
			Conflict: res.Report.Conflicts,
		})
	}

	if res.Table != res.Requested {
		r.printf("Table %s exists with a different schema, data loaded into %s\n", res.Requested, res.Table)
	}
	r.printf("Successfully loaded %s into table %s (%d rows)\n", path, res.Table, res.Rows)
	return nil
}

// tableOutput is the JSON form of one table of a schema snapshot.
type tableOutput struct {
	Name    string                   `json:"name"`
	Columns []model.ColumnDescriptor `json:"columns"`
	Sample  []map[string]any         `json:"sample"`
}

// schema renders a schema snapshot.
func (r *renderer) schema(snap *model.SchemaSnapshot) error {
	if r.isJSON() {
		tables := make([]tableOutput, 0, len(snap.Tables))
		for _, td := range snap.Tables {
			out := tableOutput{Name: td.Name, Columns: td.Columns, Sample: []map[string]any{}}
			if td.Sample != nil {
				out.Sample = td.Sample.Maps()
			}
			tables = append(tables, out)
		}
		return r.encode(tables)
	}
	r.printf("%s\n", snap.Text())
	return nil
}
