package chatsheet

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/chatsheet/domain/model"
)

// Config holds everything a Session needs.
type Config struct {
	// DSN is the SQLite database location. ":memory:" keeps the store in memory.
	DSN string
	// APIKey authenticates against the generation service. Empty disables translation.
	APIKey string
	// Endpoint is the chat completions URL.
	Endpoint string
	// Model is the generation model name.
	Model string
	// Temperature is the sampling temperature.
	Temperature float64
	// RequestTimeout bounds each generation request. Zero means no timeout.
	RequestTimeout time.Duration
	// RequestsPerMinute limits generation requests. Zero means no limit.
	RequestsPerMinute int
	// ConflictAction is applied when a load conflicts with an existing table.
	ConflictAction model.ConflictAction
	// RenderPolicy decides what happens to template keys without a value.
	RenderPolicy model.RenderPolicy
	// ErrorLogPath is the ingestion error log. Empty disables it.
	ErrorLogPath string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DSN:            MemoryDSN,
		Endpoint:       DefaultEndpoint,
		Model:          DefaultModel,
		Temperature:    DefaultTemperature,
		ConflictAction: model.ActionPrompt,
		RenderPolicy:   model.PolicySubstitute,
		ErrorLogPath:   DefaultErrorLogPath,
	}
}

// ConflictChooser picks overwrite, rename or skip for a conflicting load.
type ConflictChooser func(ctx context.Context, table string, report *model.ConflictReport) (model.ConflictAction, error)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGenerator replaces the generation client.
func WithGenerator(g Generator) Option {
	return func(s *Session) {
		s.generator = g
	}
}

// WithConflictChooser sets the chooser consulted by the prompt action.
func WithConflictChooser(c ConflictChooser) Option {
	return func(s *Session) {
		s.chooser = c
	}
}

// WithClock replaces the clock used for renamed table names.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session owns one store connection and the translation pipeline around it.
// A Session is not safe for concurrent use.
type Session struct {
	cfg       Config
	store     *store
	logger    *slog.Logger
	errLog    *errorLog
	generator Generator
	chooser   ConflictChooser
	now       func() time.Time
	closed    bool
}

// Open opens the store described by cfg. A missing API key is not an
// error: ingestion and inspection keep working and Ask reports it.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	st, err := openStore(ctx, cfg.DSN)
	if err != nil {
		return nil, NewErrorContext("open", cfg.DSN).Error(err)
	}
	return newSession(cfg, st, opts...), nil
}

// newSession builds a session around an open store
func newSession(cfg Config, st *store, opts ...Option) *Session {
	if cfg.ConflictAction == "" {
		cfg.ConflictAction = model.ActionPrompt
	}
	if cfg.RenderPolicy == "" {
		cfg.RenderPolicy = model.PolicySubstitute
	}

	s := &Session{
		cfg:    cfg,
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		errLog: newErrorLog(cfg.ErrorLogPath),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.generator == nil && cfg.APIKey != "" {
		s.generator = NewOpenAIClient(cfg.APIKey,
			WithEndpoint(cfg.Endpoint),
			WithModel(cfg.Model),
			WithTemperature(cfg.Temperature),
			WithRequestTimeout(cfg.RequestTimeout),
			WithRateLimit(cfg.RequestsPerMinute),
		)
	}
	if s.generator == nil {
		s.logger.Warn("API key not configured, natural language queries are disabled",
			slog.String("env", "OPENAI_API_KEY"))
	}
	return s
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// CanTranslate reports whether Ask can reach a generation service.
func (s *Session) CanTranslate() bool {
	return s.generator != nil
}

// Close releases the store and the error log. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	logErr := s.errLog.close()
	if err := s.store.close(); err != nil {
		return err
	}
	return logErr
}
