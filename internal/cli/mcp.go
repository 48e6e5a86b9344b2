package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/nao1215/chatsheet"
	"github.com/nao1215/chatsheet/domain/model"
	"github.com/spf13/cobra"
)

// newMCPCommand creates the mcp command.
func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the database as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout. It exposes the tools
ask, schema, load_file and execute against the configured database. Conflicting
loads are never prompted for; pass on_conflict or configure --on-conflict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := openSession(cmd, nil)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			s := server.NewMCPServer(
				"chatsheet",
				Version,
				server.WithToolCapabilities(false),
				server.WithLogging(),
			)
			registerTools(s, session)
			getLogger(cmd.Context()).Info("mcp server started")

			return server.ServeStdio(s)
		},
	}
}

// registerTools adds the chatsheet tools to s.
func registerTools(s *server.MCPServer, session *chatsheet.Session) {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Answer a natural language question about the loaded tables"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question in plain English"),
		),
	)

	schemaTool := mcp.NewTool("schema",
		mcp.WithDescription("Describe every table with its columns and sample rows"),
	)

	loadTool := mcp.NewTool("load_file",
		mcp.WithDescription("Load a CSV, TSV, LTSV, XLSX or Parquet file into a table"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the file to load"),
		),
		mcp.WithString("table",
			mcp.Description("Target table name (default: file name)"),
		),
		mcp.WithString("on_conflict",
			mcp.Description("overwrite, rename or skip when the table exists with a different schema"),
		),
	)

	executeTool := mcp.NewTool("execute",
		mcp.WithDescription("Execute SQL and optionally render a response template"),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("SQL text; rows of a final SELECT are returned"),
		),
		mcp.WithString("template",
			mcp.Description("Response template with {key} placeholders"),
		),
	)

	s.AddTool(askTool, askHandler(session))
	s.AddTool(schemaTool, schemaHandler(session))
	s.AddTool(loadTool, loadHandler(session))
	s.AddTool(executeTool, executeHandler(session))
}

// askHandler creates a handler for the ask tool
func askHandler(session *chatsheet.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing question parameter: %v", err)), nil
		}

		answer, err := session.Ask(ctx, question)
		if answer == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Ask failed: %v", err)), nil
		}
		return answerResult(answer, err)
	}
}

// schemaHandler creates a handler for the schema tool
func schemaHandler(session *chatsheet.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := session.SchemaText(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Schema failed: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// loadHandler creates a handler for the load_file tool
func loadHandler(session *chatsheet.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing path parameter: %v", err)), nil
		}

		var action model.ConflictAction
		if raw := request.GetString("on_conflict", ""); raw != "" {
			action, err = model.ParseConflictAction(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		res, err := session.LoadFile(ctx, path, request.GetString("table", ""), action)
		switch {
		case errors.Is(err, chatsheet.ErrNeedsDecision):
			return mcp.NewToolResultError(fmt.Sprintf("%v; retry with on_conflict set to overwrite, rename or skip", err)), nil
		case errors.Is(err, chatsheet.ErrSkipped):
			return mcp.NewToolResultText(fmt.Sprintf("Skipped %s: table %s has a different schema", path, res.Requested)), nil
		case err != nil:
			return mcp.NewToolResultError(fmt.Sprintf("Load failed: %v", err)), nil
		}

		return jsonResult(map[string]any{
			"table":    res.Table,
			"rows":     res.Rows,
			"replaced": res.Replaced,
			"schema":   res.Schema.String(),
		})
	}
}

// executeHandler creates a handler for the execute tool
func executeHandler(session *chatsheet.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sqlText, err := request.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing sql parameter: %v", err)), nil
		}

		if template := request.GetString("template", ""); template != "" {
			answer, err := session.ExecuteAndRender(ctx, sqlText, template)
			if answer == nil {
				return mcp.NewToolResultError(fmt.Sprintf("Execute failed: %v", err)), nil
			}
			return answerResult(answer, err)
		}

		rs, err := session.Execute(ctx, sqlText)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Execute failed: %v", err)), nil
		}
		if rs == nil {
			return mcp.NewToolResultText("Operation executed successfully."), nil
		}
		return jsonResult(rs.Maps())
	}
}

func answerResult(answer *chatsheet.Answer, renderErr error) (*mcp.CallToolResult, error) {
	return jsonResult(newAnswerOutput(answer, renderErr))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
