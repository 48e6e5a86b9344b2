// Package cli provides the command-line interface for chatsheet.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/chatsheet"
	"github.com/nao1215/chatsheet/internal/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile   string
		csvPath   string
		tableName string
	)

	rootCmd := &cobra.Command{
		Use:   "chatsheet",
		Short: "Query spreadsheets in plain English",
		Long: `chatsheet loads tabular files (CSV, TSV, LTSV, XLSX, Parquet) into SQLite
and answers natural language questions about them. Questions are turned into
SQL and a response template by an OpenAI compatible service; the SQL runs
locally and the result is rendered into the template.

Without a subcommand an interactive shell is started.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if cfg.File != "" {
				logger.Debug("using config file", slog.String("path", cfg.File))
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, csvPath, tableName)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./chatsheet.yaml)")
	pf.String("db", "", "SQLite database file, or :memory: (default: sheet_data.db)")
	pf.String("api-key", "", "API key for the generation service (default: $OPENAI_API_KEY)")
	pf.String("endpoint", "", "chat completions endpoint")
	pf.String("model", "", "generation model")
	pf.Float64("temperature", chatsheet.DefaultTemperature, "sampling temperature")
	pf.Duration("timeout", 0, "generation request timeout (0 = none)")
	pf.Int("rate-limit", 0, "maximum generation requests per minute (0 = unlimited)")
	pf.String("on-conflict", "", "action when a load conflicts with an existing table (overwrite|rename|skip|prompt)")
	pf.String("render-policy", "", "template keys without a value (substitute|strict)")
	pf.String("error-log", "", "ingestion error log file (empty string disables)")
	pf.String("history", "", "shell history file")
	pf.StringP("output", "o", "", "output format (table|json)")
	pf.BoolP("verbose", "v", false, "verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputTable, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("on-conflict", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"overwrite", "rename", "skip", "prompt"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Startup load for the shell
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "file to load before the shell starts")
	rootCmd.Flags().StringVar(&tableName, "table", "", "table name for --csv (default: file name)")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newExecCommand())
	rootCmd.AddCommand(newLoadCommand())
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newMCPCommand())

	return rootCmd
}

// Execute runs the root command and prints its error to stderr.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig returns the configuration loaded by the root command.
func getConfig(ctx context.Context) *config.Loaded {
	if cfg, ok := ctx.Value(configKey{}).(*config.Loaded); ok {
		return cfg
	}
	return nil
}

// getLogger returns the logger created by the root command.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// openSession opens a session from the loaded configuration.
func openSession(cmd *cobra.Command, chooser chatsheet.ConflictChooser) (*chatsheet.Session, error) {
	ctx := cmd.Context()
	cfg := getConfig(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	opts := []chatsheet.Option{chatsheet.WithLogger(getLogger(ctx))}
	if chooser != nil {
		opts = append(opts, chatsheet.WithConflictChooser(chooser))
	}
	return chatsheet.Open(ctx, cfg.Session(), opts...)
}
