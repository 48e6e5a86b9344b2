package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/chatsheet"
	"github.com/nao1215/chatsheet/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemsCSV = "id,name,price\n1,apple,1.5\n2,banana,0.25\n3,cherry,3\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestShell(t *testing.T, gen chatsheet.Generator) (*shell, *bytes.Buffer) {
	t.Helper()

	cfg := chatsheet.DefaultConfig()
	cfg.ErrorLogPath = ""
	opts := []chatsheet.Option{chatsheet.WithLogger(testutil.NewTestLogger(t))}
	if gen != nil {
		opts = append(opts, chatsheet.WithGenerator(gen))
	}

	session, err := chatsheet.Open(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	var buf bytes.Buffer
	return &shell{session: session, out: newRenderer(&buf, "")}, &buf
}

func respond(raw string) chatsheet.Generator {
	return chatsheet.GeneratorFunc(func(context.Context, string) (string, error) {
		return raw, nil
	})
}

func TestShell_Handle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("exit", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, nil)
		assert.False(t, sh.handle(ctx, "   "))
		assert.True(t, sh.handle(ctx, "EXIT"))
		assert.Contains(t, out.String(), "Exiting...")
	})

	t.Run("exit with words is a question", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, nil)
		assert.False(t, sh.handle(ctx, "exit the loop early?"))
		assert.False(t, sh.handle(ctx, "quit rate by region"))
		assert.NotContains(t, out.String(), "Exiting...")
		assert.Contains(t, out.String(), "Note: LLM features are disabled.")
	})

	t.Run("load and schema", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, nil)
		path := writeFile(t, t.TempDir(), "items.csv", itemsCSV)

		assert.False(t, sh.handle(ctx, "load "+path+" goods"))
		assert.Contains(t, out.String(), "Successfully loaded "+path+" into table goods (3 rows)")

		out.Reset()
		assert.False(t, sh.handle(ctx, "schema"))
		assert.Contains(t, out.String(), "Current Database Schema:")
		assert.Contains(t, out.String(), "Table: goods")
		assert.Contains(t, out.String(), "price (REAL)")
	})

	t.Run("load usage", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, nil)
		sh.handle(ctx, "load")
		assert.Contains(t, out.String(), "Error: Please use format 'load <csv_file> <table_name>'")
	})

	t.Run("load missing file", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, nil)
		sh.handle(ctx, "load "+filepath.Join(t.TempDir(), "missing.csv"))
		assert.Contains(t, out.String(), "Error loading CSV file:")
	})

	t.Run("question without key", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, nil)
		sh.handle(ctx, "how many items are there?")
		assert.Contains(t, out.String(), "Note: LLM features are disabled.")
	})

	t.Run("question", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, respond("SQL: SELECT COUNT(*) AS n FROM items\nTEMPLATE: There are {n} items."))
		sh.handle(ctx, "load "+writeFile(t, t.TempDir(), "items.csv", itemsCSV))

		out.Reset()
		sh.handle(ctx, "how many items are there?")
		assert.Contains(t, out.String(), "Generated SQL query: SELECT COUNT(*) AS n FROM items")
		assert.Contains(t, out.String(), "In plain English:\nThere are 3 items.")
	})

	t.Run("schema with words is a question", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, respond("SQL: SELECT 1 AS one\nTEMPLATE: {one}"))
		sh.handle(ctx, "schema of the items table")
		assert.Contains(t, out.String(), "Generated SQL query: SELECT 1 AS one")
	})

	t.Run("invalid response", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, respond("I cannot help with that"))
		sh.handle(ctx, "how many items are there?")
		assert.Contains(t, out.String(), "Error: Invalid response format from LLM. Response: I cannot help with that")
	})

	t.Run("execution error", func(t *testing.T) {
		t.Parallel()

		sh, out := newTestShell(t, respond("SQL: SELECT * FROM nowhere\nTEMPLATE: {results}"))
		sh.handle(ctx, "show everything")
		assert.Contains(t, out.String(), "Error executing query:")
		assert.Contains(t, out.String(), "nowhere")
	})
}

func TestDisplayTable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sales", displayTable("data/2024 report.csv", "sales"))
	assert.Equal(t, "items", displayTable("data/items.csv.gz", ""))
}
