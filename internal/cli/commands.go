package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/chatsheet"
	"github.com/nao1215/chatsheet/domain/model"
	"github.com/spf13/cobra"
)

// newVersionCommand creates the version command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "chatsheet v%s (%s)\n", Version, GitCommit)
		},
	}
}

// newAskCommand creates the ask command.
func newAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a natural language question",
		Long: `Translate a question into SQL and a response template, run the SQL against
the database and print the rendered answer.`,
		Example: `  chatsheet ask "How many items cost more than 2 dollars?"
  chatsheet ask --db sales.db -o json "Total revenue per region"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(cmd, nil)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			out := newRenderer(cmd.OutOrStdout(), getConfig(cmd.Context()).Output)
			answer, err := session.Ask(cmd.Context(), strings.Join(args, " "))
			if answer != nil {
				if rerr := out.answer(answer, err); rerr != nil {
					return rerr
				}
			}
			return err
		},
	}
}

// newExecCommand creates the exec command.
func newExecCommand() *cobra.Command {
	var sqlText, template string

	cmd := &cobra.Command{
		Use:   "exec [sql]",
		Short: "Execute SQL directly",
		Long: `Execute SQL text against the database. When the last statement is a SELECT
its rows are printed; with --template they are also rendered into the template
the same way answers to questions are.`,
		Example: `  chatsheet exec "SELECT name, price FROM items"
  chatsheet exec --sql "SELECT COUNT(*) AS n FROM items" --template "There are {n} items."
  chatsheet exec "UPDATE items SET price = 0 WHERE name = 'pen'"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if sqlText != "" {
					return errors.New("give the SQL either as an argument or with --sql, not both")
				}
				sqlText = args[0]
			}
			if strings.TrimSpace(sqlText) == "" {
				return errors.New("no SQL given")
			}

			ctx := cmd.Context()
			session, err := openSession(cmd, nil)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			out := newRenderer(cmd.OutOrStdout(), getConfig(ctx).Output)
			if template != "" {
				answer, err := session.ExecuteAndRender(ctx, sqlText, template)
				if answer != nil {
					if rerr := out.answer(answer, err); rerr != nil {
						return rerr
					}
				}
				return err
			}

			rs, err := session.Execute(ctx, sqlText)
			if err != nil {
				return err
			}
			if rs == nil {
				out.printf("Operation executed successfully.\n")
				return nil
			}
			return out.resultSet(rs)
		},
	}

	cmd.Flags().StringVar(&sqlText, "sql", "", "SQL text to execute")
	cmd.Flags().StringVarP(&template, "template", "t", "", "response template with {key} placeholders")
	return cmd
}

// newLoadCommand creates the load command.
func newLoadCommand() *cobra.Command {
	var table, format string

	cmd := &cobra.Command{
		Use:   "load <file>...",
		Short: "Load tabular files into the database",
		Long: `Load CSV, TSV, LTSV, XLSX or Parquet files, optionally compressed with gzip,
bzip2, xz or zstd. Column types are inferred from the data. When a table of
the same name already exists with a different schema, --on-conflict decides
whether it is overwritten, the data goes to a timestamped table, the file is
skipped, or you are asked.

A file named - is read from standard input; --table and --format are then
required.`,
		Example: `  chatsheet load items.csv
  chatsheet load sales.xlsx --table sales_2024
  chatsheet load logs/*.ltsv.gz --on-conflict rename
  gzip -dc orders.csv.gz | chatsheet load - --format csv --table orders`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if table != "" && len(args) > 1 {
				return errors.New("--table can only be used with a single file")
			}

			ctx := cmd.Context()
			session, err := openSession(cmd, commandChooser(cmd.InOrStdin(), cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			out := newRenderer(cmd.OutOrStdout(), getConfig(ctx).Output)
			var failed int
			for _, path := range args {
				var res *chatsheet.IngestResult
				if path == "-" {
					if table == "" || format == "" {
						return errors.New("loading from standard input requires --table and --format")
					}
					res, err = session.LoadReader(ctx, cmd.InOrStdin(), "stdin."+strings.TrimPrefix(format, "."), table, "")
				} else {
					res, err = session.LoadFile(ctx, path, table, "")
				}
				switch {
				case errors.Is(err, chatsheet.ErrSkipped):
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: table %s has a different schema\n", path, res.Requested)
					continue
				case err != nil:
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "failed to load %s: %v\n", path, err)
					failed++
					continue
				}
				if err := out.ingestion(path, res); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to load", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "table name (default: file name)")
	cmd.Flags().StringVar(&format, "format", "", "format of standard input, e.g. csv, tsv.gz, parquet")
	return cmd
}

// newSchemaCommand creates the schema command.
func newSchemaCommand() *cobra.Command {
	var promptText bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show tables, columns and sample rows",
		Long: `Show every table with its columns and up to three sample rows. With --prompt
the text sent to the generation service for a question is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := openSession(cmd, nil)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			snap, err := session.Snapshot(ctx)
			if err != nil {
				return err
			}
			if promptText {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), model.BuildPrompt(snap.Text(), "<question>", model.OperationSelect))
				return nil
			}
			return newRenderer(cmd.OutOrStdout(), getConfig(ctx).Output).schema(snap)
		},
	}

	cmd.Flags().BoolVar(&promptText, "prompt", false, "print the generation prompt for the current schema")
	return cmd
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch chatsheet.KindOf(err) {
	case chatsheet.KindConfiguration:
		return 3
	case chatsheet.KindTransport, chatsheet.KindFormat:
		return 4
	case chatsheet.KindExecution, chatsheet.KindRender:
		return 5
	}
	if err != nil {
		return 1
	}
	return 0
}

// Main runs the command line and returns the exit status.
func Main() int {
	return exitCode(Execute())
}
