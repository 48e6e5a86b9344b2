package chatsheet

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/nao1215/chatsheet/domain/model"
)

// Answer is the outcome of one translated or direct request.
type Answer struct {
	// RequestID identifies the request in log lines.
	RequestID string `json:"request_id,omitempty"`
	// Question is the natural language input, empty for direct execution.
	Question string `json:"question,omitempty"`
	// Operation is the classified kind of the question.
	Operation model.OperationKind `json:"operation,omitempty"`
	// SQL is the executed SQL text.
	SQL string `json:"sql"`
	// Template is the raw response template.
	Template string `json:"template"`
	// Result is set when the SQL ended with a SELECT.
	Result *model.ResultSet `json:"-"`
	// Text is the rendered response, or the raw template when rendering failed.
	Text string `json:"text"`
	// Substituted lists placeholders replaced with the unknown marker.
	Substituted []string `json:"substituted,omitempty"`
}

// Execute runs SQL text. When its last statement is a SELECT the statements
// before it run as one committed script and the SELECT result is returned.
// Otherwise the whole text runs as one committed script and the result is nil.
// Statements are split naively on ';' so literals containing ';' are not
// supported. A failing SELECT leaves the committed script in place.
func (s *Session) Execute(ctx context.Context, sqlText string) (*model.ResultSet, error) {
	if s.closed {
		return nil, ErrClosed
	}

	plan := model.PlanExecution(sqlText)
	if strings.TrimSpace(plan.Script) != "" {
		if err := s.store.execScript(ctx, plan.Script); err != nil {
			s.logger.Error("script failed", slog.String("sql", plan.Script), slog.String("error", err.Error()))
			return nil, &Error{Kind: KindExecution, Op: "execute", Err: err}
		}
	}
	if !plan.HasQuery() {
		return nil, nil
	}

	rs, err := s.store.query(ctx, plan.Query)
	if err != nil {
		s.logger.Error("query failed", slog.String("sql", plan.Query), slog.String("error", err.Error()))
		return nil, &Error{Kind: KindExecution, Op: "query", Err: err}
	}
	return rs, nil
}

// ExecuteAndRender executes sqlText and renders template against its result.
// A non-SELECT renders against an empty dictionary. Under the strict policy a
// missing key returns the answer with the raw template as Text together with
// a render error.
func (s *Session) ExecuteAndRender(ctx context.Context, sqlText, template string) (*Answer, error) {
	answer := &Answer{SQL: sqlText, Template: template}
	if err := s.executeAndRender(ctx, answer); err != nil {
		if KindOf(err) == KindRender {
			return answer, err
		}
		return nil, err
	}
	return answer, nil
}

func (s *Session) executeAndRender(ctx context.Context, answer *Answer) error {
	rs, err := s.Execute(ctx, answer.SQL)
	if err != nil {
		return err
	}
	answer.Result = rs

	rendered, err := model.Render(answer.Template, model.BuildDictionary(rs), s.cfg.RenderPolicy)
	if err != nil {
		answer.Text = answer.Template
		renderErr := &Error{Kind: KindRender, Op: "render", Template: answer.Template, Err: err}
		var mke *model.MissingKeyError
		if errors.As(err, &mke) {
			renderErr.AvailableKeys = mke.Available
		}
		return renderErr
	}

	answer.Text = rendered.Text
	answer.Substituted = rendered.Substituted
	if len(rendered.Substituted) > 0 {
		s.logger.Warn("template keys without values",
			slog.Any("keys", rendered.Substituted), slog.String("template", answer.Template))
	}
	return nil
}
