package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/nao1215/chatsheet"
	"github.com/spf13/cobra"
)

const shellPrompt = "chatsheet> "

const shellUsage = `Commands:
  load <file> [table]   load a CSV, TSV, LTSV, XLSX or Parquet file
  schema                show tables, columns and sample rows
  help                  show this help
  exit                  quit
Anything else is sent as a natural language question.`

// shell handles the lines typed into the interactive session.
type shell struct {
	session *chatsheet.Session
	out     *renderer
}

// handle processes one line and reports whether the shell should quit.
func (sh *shell) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "exit", "quit":
		if len(fields) == 1 {
			sh.out.printf("\nExiting...\n")
			return true
		}
	case "help":
		if len(fields) == 1 {
			sh.out.printf("%s\n", shellUsage)
			return false
		}
	case "schema":
		if len(fields) == 1 {
			sh.showSchema(ctx)
			return false
		}
	case "load":
		sh.load(ctx, fields[1:])
		return false
	}

	sh.ask(ctx, line)
	return false
}

func (sh *shell) showSchema(ctx context.Context) {
	text, err := sh.session.SchemaText(ctx)
	if err != nil {
		sh.out.printf("Error: %v\n", err)
		return
	}
	sh.out.printf("\nCurrent Database Schema:\n%s\n", text)
}

func (sh *shell) load(ctx context.Context, args []string) {
	if len(args) == 0 || len(args) > 2 {
		sh.out.printf("Error: Please use format 'load <csv_file> <table_name>'\n")
		return
	}
	path, table := args[0], ""
	if len(args) == 2 {
		table = args[1]
	}
	loadFile(ctx, sh.session, sh.out, path, table)
}

func (sh *shell) ask(ctx context.Context, question string) {
	if !sh.session.CanTranslate() {
		sh.out.printf("Note: LLM features are disabled. Please set OPENAI_API_KEY to use natural language queries.\n")
		return
	}

	answer, err := sh.session.Ask(ctx, question)
	if answer != nil {
		if renderErr := sh.out.answer(answer, err); renderErr != nil {
			sh.out.printf("Error: %v\n", renderErr)
		}
		return
	}
	reportAskError(sh.out, err)
}

// loadFile loads one file and reports the outcome on out. It returns false
// when nothing was written.
func loadFile(ctx context.Context, session *chatsheet.Session, out *renderer, path, table string) bool {
	res, err := session.LoadFile(ctx, path, table, "")
	switch {
	case errors.Is(err, chatsheet.ErrSkipped):
		out.printf("Skipped loading %s: table %s has a different schema\n", path, res.Requested)
		return false
	case err != nil:
		out.printf("Error loading CSV file: %v\n", err)
		return false
	}
	if err := out.ingestion(path, res); err != nil {
		out.printf("Error: %v\n", err)
	}
	return true
}

// reportAskError prints a failed question the way the shell shows it.
func reportAskError(out *renderer, err error) {
	var e *chatsheet.Error
	if !errors.As(err, &e) {
		out.printf("Error: %v\n", err)
		return
	}
	switch e.Kind {
	case chatsheet.KindFormat:
		out.printf("Error: Invalid response format from LLM. Response: %s\n", e.Raw)
	case chatsheet.KindExecution:
		out.printf("Error executing query: %v\n", e.Err)
	default:
		out.printf("Error: %v\n", e.Err)
	}
}

// newShellCompleter completes shell commands and loadable files in the
// working directory.
func newShellCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("exit"),
		readline.PcItem("help"),
		readline.PcItem("schema"),
		readline.PcItem("load", readline.PcItemDynamic(listLoadableFiles)),
	)
}

func listLoadableFiles(string) []string {
	entries, err := os.ReadDir(".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && chatsheet.IsSupportedFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names
}

// runShell starts the interactive session, loading csvPath first when set.
func runShell(cmd *cobra.Command, csvPath, tableName string) error {
	ctx := cmd.Context()
	cfg := getConfig(ctx)
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    newShellCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	read := func(prompt string) (string, error) {
		rl.SetPrompt(prompt)
		defer rl.SetPrompt(shellPrompt)
		return rl.Readline()
	}
	out := rl.Stdout()

	session, err := openSession(cmd, newConflictChooser(out, read, true))
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	sh := &shell{session: session, out: newRenderer(out, cfg.Output)}

	if csvPath != "" {
		sh.out.printf("Loading %s into table %s...\n", csvPath, displayTable(csvPath, tableName))
		loadFile(ctx, session, sh.out, csvPath, tableName)
	}

	sh.out.printf("\nWelcome to ChatSheet!\n")
	sh.out.printf("Type 'exit' to quit, 'schema' to view database schema, 'load <csv_file> <table_name>' to load a CSV file, or enter a natural language query.\n")
	if !session.CanTranslate() {
		sh.out.printf("Note: LLM features are disabled. Please set OPENAI_API_KEY to use natural language queries.\n")
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if sh.handle(ctx, line) {
			return nil
		}
	}
}

// displayTable is the table name a load will target.
func displayTable(path, table string) string {
	if table != "" {
		return table
	}
	return chatsheet.TableNameFromPath(path)
}
