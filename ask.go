package chatsheet

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/chatsheet/domain/model"
)

// Ask translates a question into SQL and a response template, executes the
// SQL and renders the template against its result.
//
// Errors carry a Kind: configuration when no generation service is set,
// transport when the service fails, format when its answer lacks the
// markers, execution when the store rejects the SQL and render when the
// strict policy meets a missing key. A render error still returns the
// answer, with the raw template as Text.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	if s.closed {
		return nil, ErrClosed
	}

	answer := &Answer{
		RequestID: uuid.NewString(),
		Question:  question,
		Operation: model.Classify(question),
	}
	logger := s.logger.With(slog.String("request_id", answer.RequestID))

	if s.generator == nil {
		return nil, &Error{Kind: KindConfiguration, Op: "ask", Err: ErrNoAPIKey}
	}

	schemaText, err := s.SchemaText(ctx)
	if err != nil {
		return nil, &Error{Kind: KindExecution, Op: "introspect", Err: err}
	}

	prompt := model.BuildPrompt(schemaText, question, answer.Operation)
	logger.Debug("generating", slog.String("operation", string(answer.Operation)))

	start := time.Now()
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("generation failed", slog.String("error", err.Error()))
		return nil, &Error{Kind: KindTransport, Op: "generate", Err: err}
	}
	logger.Debug("generated", slog.Duration("elapsed", time.Since(start)))

	parsed, err := model.ParseResponse(raw)
	if err != nil {
		logger.Error("unparseable response", slog.String("raw", raw))
		return nil, &Error{Kind: KindFormat, Op: "parse", Raw: raw, Err: err}
	}
	answer.SQL = parsed.SQL
	answer.Template = parsed.Template
	logger.Info("translated", slog.String("sql", parsed.SQL))

	if err := s.executeAndRender(ctx, answer); err != nil {
		if KindOf(err) == KindRender {
			logger.Warn("render failed", slog.String("error", err.Error()))
			return answer, err
		}
		return nil, err
	}
	return answer, nil
}
