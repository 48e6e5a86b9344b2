package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/chatsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliEnv is a database and error log shared by the commands of one test.
type cliEnv struct {
	t   *testing.T
	dir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CHATSHEET_API_KEY", "")
	return &cliEnv{t: t, dir: t.TempDir()}
}

// run executes the root command with args followed by the shared flags.
func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	return e.runIn("", args...)
}

// runIn is run with stdin as standard input.
func (e *cliEnv) runIn(stdin string, args ...string) (string, string, error) {
	e.t.Helper()

	args = append(args,
		"--db", filepath.Join(e.dir, "test.db"),
		"--error-log", filepath.Join(e.dir, "error_log.txt"),
	)

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	assert.Equal(t, "chatsheet", cmd.Use)

	for _, flag := range []string{"config", "db", "api-key", "endpoint", "model", "temperature", "timeout",
		"rate-limit", "on-conflict", "render-policy", "error-log", "history", "output", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.NotNil(t, cmd.Flags().Lookup("csv"))
	assert.NotNil(t, cmd.Flags().Lookup("table"))

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"ask", "exec", "load", "schema", "mcp", "version"})
}

func TestVersionCommand(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "chatsheet v"+Version)
}

func TestLoadCommand(t *testing.T) {
	e := newCLIEnv(t)
	path := writeFile(t, t.TempDir(), "items.csv", itemsCSV)

	out, _, err := e.run("load", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully loaded "+path+" into table items (3 rows)")

	t.Run("conflict renamed", func(t *testing.T) {
		other := writeFile(t, t.TempDir(), "items.csv", "id,name\nx1,apple\n")

		out, _, err := e.run("load", other, "--on-conflict", "rename")
		require.NoError(t, err)
		assert.Contains(t, out, "Table items exists with a different schema, data loaded into items_")
	})

	t.Run("conflict skipped", func(t *testing.T) {
		other := writeFile(t, t.TempDir(), "items.csv", "id,name\nx1,apple\n")

		out, stderr, err := e.run("load", other, "--on-conflict", "skip")
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Contains(t, stderr, "skipped "+other)
	})

	t.Run("missing file", func(t *testing.T) {
		_, stderr, err := e.run("load", filepath.Join(t.TempDir(), "missing.csv"), "--on-conflict", "overwrite")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 1 files failed to load")
		assert.Contains(t, stderr, "failed to load")
	})

	t.Run("standard input", func(t *testing.T) {
		out, _, err := e.runIn("k:v\tn:1\nk:w\tn:2\n", "load", "-", "--format", "ltsv", "--table", "pairs")
		require.NoError(t, err)
		assert.Contains(t, out, "into table pairs (2 rows)")

		_, _, err = e.runIn(itemsCSV, "load", "-")
		assert.Error(t, err)
	})

	t.Run("table with many files", func(t *testing.T) {
		_, _, err := e.run("load", path, path, "--table", "x")
		assert.Error(t, err)
	})
}

func TestExecCommand(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run("load", writeFile(t, t.TempDir(), "items.csv", itemsCSV))
	require.NoError(t, err)

	t.Run("rows as json", func(t *testing.T) {
		out, _, err := e.run("exec", "SELECT name FROM items ORDER BY id", "-o", "json")
		require.NoError(t, err)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 3)
		assert.Equal(t, "cherry", rows[2]["name"])
	})

	t.Run("template", func(t *testing.T) {
		out, _, err := e.run("exec", "--sql", "SELECT COUNT(*) AS n FROM items", "--template", "There are {n} items.")
		require.NoError(t, err)
		assert.Contains(t, out, "There are 3 items.")
	})

	t.Run("strict render failure", func(t *testing.T) {
		out, _, err := e.run("exec", "--sql", "SELECT COUNT(*) AS n FROM items", "--template", "{total}", "--render-policy", "strict")
		require.Error(t, err)
		assert.Equal(t, chatsheet.KindRender, chatsheet.KindOf(err))
		assert.Equal(t, 5, exitCode(err))
		assert.Contains(t, out, "Available keys:")
	})

	t.Run("non select", func(t *testing.T) {
		out, _, err := e.run("exec", "DELETE FROM items WHERE id = 1")
		require.NoError(t, err)
		assert.Contains(t, out, "Operation executed successfully.")

		out, _, err = e.run("exec", "SELECT COUNT(*) AS n FROM items")
		require.NoError(t, err)
		assert.Contains(t, out, "(1 rows)")
		assert.Contains(t, out, "2")
	})

	t.Run("no sql", func(t *testing.T) {
		_, _, err := e.run("exec")
		assert.Error(t, err)
	})
}

func TestSchemaCommand(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run("load", writeFile(t, t.TempDir(), "items.csv", itemsCSV))
	require.NoError(t, err)

	out, _, err := e.run("schema", "-o", "json")
	require.NoError(t, err)

	var tables []tableOutput
	require.NoError(t, json.Unmarshal([]byte(out), &tables))
	require.Len(t, tables, 1)
	assert.Equal(t, "items", tables[0].Name)
	assert.Len(t, tables[0].Columns, 3)
	assert.Len(t, tables[0].Sample, 3)

	out, _, err = e.run("schema", "--prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "Table: items")
	assert.Contains(t, out, "<question>")
}

func TestAskCommand(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run("load", writeFile(t, t.TempDir(), "items.csv", itemsCSV))
	require.NoError(t, err)

	t.Run("answers", func(t *testing.T) {
		srv := chatServer(t, "SQL: SELECT COUNT(*) AS n FROM items\nTEMPLATE: There are {n} items.")

		out, _, err := e.run("ask", "how", "many", "items?", "--api-key", "sk-test", "--endpoint", srv.URL)
		require.NoError(t, err)
		assert.Contains(t, out, "Generated SQL query: SELECT COUNT(*) AS n FROM items")
		assert.Contains(t, out, "There are 3 items.")
	})

	t.Run("invalid response", func(t *testing.T) {
		srv := chatServer(t, "no markers here")

		_, _, err := e.run("ask", "anything", "--api-key", "sk-test", "--endpoint", srv.URL)
		require.Error(t, err)
		assert.Equal(t, chatsheet.KindFormat, chatsheet.KindOf(err))
		assert.Equal(t, 4, exitCode(err))
	})

	t.Run("no api key", func(t *testing.T) {
		_, _, err := e.run("ask", "anything")
		require.Error(t, err)
		assert.ErrorIs(t, err, chatsheet.ErrNoAPIKey)
		assert.Equal(t, 3, exitCode(err))
	})
}

func TestInvalidConfig(t *testing.T) {
	e := newCLIEnv(t)

	_, _, err := e.run("schema", "--on-conflict", "merge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_conflict")
	assert.Equal(t, 1, exitCode(err))
}
