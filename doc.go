// Package chatsheet answers natural language questions about tabular files.
//
// A Session owns one SQLite store. Files in CSV, TSV, LTSV, Parquet or Excel
// (XLSX) format are loaded into tables with inferred column types, questions
// are translated into SQL and a response template by an OpenAI compatible
// chat completions service, and the SQL result is rendered into the template.
//
// # Basic Usage
//
//	s, err := chatsheet.Open(ctx, chatsheet.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	if _, err := s.LoadFile(ctx, "sales.csv", "", chatsheet.DefaultConfig().ConflictAction); err != nil {
//	    log.Fatal(err)
//	}
//
//	answer, err := s.Ask(ctx, "What was the total revenue in March?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(answer.Text)
//
// Without an API key ingestion, inspection and direct execution keep working;
// Ask fails with an error wrapping ErrNoAPIKey.
//
// # Column Types
//
// A column whose non-missing values are all whole numbers is INTEGER, one
// with any fractional number is REAL, anything else is TEXT. Empty cells and
// spellings such as NA, N/A, null and NaN are missing and stored as NULL.
// Spaces in column names become underscores.
//
// # Table Naming
//
// Table names default to the file name without format and compression
// extensions, limited to letters, digits and underscores:
//   - "users.csv" becomes table "users"
//   - "data.tsv.gz" becomes table "data"
//   - "2024 report.xlsx" becomes table "table_2024_report"
//
// # Schema Conflicts
//
// Loading into an existing table compares the declared column types. When
// they agree the table is replaced. Otherwise the ConflictAction decides:
// overwrite drops and recreates the table, rename writes to
// "<table>_<YYYYMMDD_HHMMSS>", skip leaves the store unchanged and returns
// ErrSkipped, and prompt asks the ConflictChooser.
//
// # Templates
//
// Response templates reference result columns as {column}. {results} holds
// every row, {row_count} and {count} the number of rows. Keys without a
// value render as [unknown] under the substitute policy and fail under the
// strict policy.
package chatsheet
