package chatsheet

import (
	"errors"
	"fmt"
	"strings"
)

// Standard errors returned by ingestion and the query pipeline
var (
	// ErrEmptyData indicates that the data source contains no records
	ErrEmptyData = errors.New("chatsheet: empty data source")

	// ErrUnsupportedFormat indicates an unsupported file format
	ErrUnsupportedFormat = errors.New("chatsheet: unsupported file format")

	// ErrInvalidData indicates malformed or invalid data
	ErrInvalidData = errors.New("chatsheet: invalid data format")

	// ErrFileNotFound indicates file not found
	ErrFileNotFound = errors.New("chatsheet: file not found")

	// ErrSkipped indicates a conflicting load was skipped
	ErrSkipped = errors.New("chatsheet: load skipped due to schema conflict")

	// ErrNeedsDecision indicates a conflicting load needs a caller-supplied action
	ErrNeedsDecision = errors.New("chatsheet: schema conflict needs a decision")

	// ErrNoAPIKey indicates translation is unavailable because no API key is set
	ErrNoAPIKey = errors.New("chatsheet: API key not configured, set the OPENAI_API_KEY environment variable")

	// ErrClosed indicates the session was already closed
	ErrClosed = errors.New("chatsheet: session closed")
)

// Kind classifies the failures of the query pipeline.
type Kind int

const (
	// KindConfiguration means translation is unavailable
	KindConfiguration Kind = iota + 1
	// KindTransport means the generation service was unreachable or answered non-200
	KindTransport
	// KindFormat means the model response lacked the required markers
	KindFormat
	// KindExecution means the store rejected a statement
	KindExecution
	// KindRender means the template referenced a key without a value
	KindRender
)

// Sentinels matching each Kind with errors.Is.
var (
	ErrConfiguration = errors.New("chatsheet: configuration error")
	ErrTransport     = errors.New("chatsheet: transport error")
	ErrFormat        = errors.New("chatsheet: invalid response format")
	ErrExecution     = errors.New("chatsheet: execution error")
	ErrRender        = errors.New("chatsheet: render error")
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindFormat:
		return "format"
	case KindExecution:
		return "execution"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindTransport:
		return ErrTransport
	case KindFormat:
		return ErrFormat
	case KindExecution:
		return ErrExecution
	case KindRender:
		return ErrRender
	default:
		return nil
	}
}

// Error is a pipeline failure with enough context to diagnose it.
type Error struct {
	Kind Kind
	Op   string
	// Raw is the model response, set for format errors.
	Raw string
	// Template is the raw template, set for render errors.
	Template string
	// AvailableKeys lists the dictionary keys, set for render errors.
	AvailableKeys []string
	Err           error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("chatsheet: %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("chatsheet: %s failed (%s error): %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of a pipeline error, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ErrorContext provides context for where an ingestion error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	parts := []string{fmt.Sprintf("chatsheet: %s failed", ec.Operation)}

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}
	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}
	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
