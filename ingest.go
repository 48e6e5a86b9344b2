package chatsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/chatsheet/domain/model"
)

// renameLayout formats the timestamp appended to renamed tables
const renameLayout = "20060102_150405"

// IngestResult describes what a load did to the store.
type IngestResult struct {
	// Requested is the table the caller asked for.
	Requested string
	// Table is the table that was written. Empty when nothing was written.
	Table string
	// Action is the conflict action applied, empty when there was no conflict.
	Action model.ConflictAction
	// Replaced is set when an existing table was dropped and recreated.
	Replaced bool
	// Rows is the number of inserted rows.
	Rows int
	// Schema is the inferred schema of the dataset.
	Schema model.InferredSchema
	// Report is the conflict check against the existing table.
	Report *model.ConflictReport
}

// GetSchema returns the declared schema of a table; false when it is absent.
func (s *Session) GetSchema(ctx context.Context, table string) (model.InferredSchema, bool, error) {
	if s.closed {
		return nil, false, ErrClosed
	}

	exists, err := s.store.tableExists(ctx, table)
	if err != nil || !exists {
		return nil, false, err
	}
	columns, err := s.store.columns(ctx, table)
	if err != nil {
		return nil, false, err
	}
	return model.TableDescriptor{Name: table, Columns: columns}.Schema(), true, nil
}

// CheckConflict compares schema with the existing table. An absent table
// has no conflicts.
func (s *Session) CheckConflict(ctx context.Context, table string, schema model.InferredSchema) (*model.ConflictReport, error) {
	existing, ok, err := s.GetSchema(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &model.ConflictReport{}, nil
	}
	return model.CompareSchemas(existing, schema), nil
}

// Resolve writes the dataset to table according to action. Without a
// conflict the table is created, or replaced when it already exists.
func (s *Session) Resolve(ctx context.Context, table string, d *model.Dataset, schema model.InferredSchema, action model.ConflictAction) (*IngestResult, error) {
	ec := NewErrorContext("resolve", "").WithTable(table)

	report, err := s.CheckConflict(ctx, table, schema)
	if err != nil {
		return nil, s.ingestFailure(ec.WithDetails("schema check").Error(err))
	}
	result := &IngestResult{Requested: table, Schema: schema, Report: report}

	if !report.Exists {
		exists, err := s.store.tableExists(ctx, table)
		if err != nil {
			return result, s.ingestFailure(ec.Error(err))
		}
		return result, s.write(ctx, result, table, d, exists)
	}

	s.logger.Info("schema conflict",
		slog.String("table", table), slog.Any("conflicts", report.Conflicts))

	if action == model.ActionPrompt {
		if s.chooser == nil {
			return result, fmt.Errorf("%w: table %s: %v", ErrNeedsDecision, table, report.Conflicts)
		}
		action, err = s.chooser(ctx, table, report)
		if err != nil {
			return result, s.ingestFailure(ec.WithDetails("conflict choice").Error(err))
		}
	}
	result.Action = action

	switch action {
	case model.ActionOverwrite:
		return result, s.write(ctx, result, table, d, true)
	case model.ActionRename:
		target, err := s.renameTarget(ctx, table)
		if err != nil {
			return result, s.ingestFailure(ec.Error(err))
		}
		return result, s.write(ctx, result, target, d, false)
	case model.ActionSkip:
		s.logger.Info("load skipped", slog.String("table", table))
		return result, fmt.Errorf("%w: %s", ErrSkipped, table)
	default:
		return result, fmt.Errorf("unsupported conflict action %q", action)
	}
}

// write stores the dataset and fills result
func (s *Session) write(ctx context.Context, result *IngestResult, table string, d *model.Dataset, replace bool) error {
	if err := s.store.writeTable(ctx, table, result.Schema, d, replace); err != nil {
		return s.ingestFailure(NewErrorContext("write", "").WithTable(table).Error(err))
	}
	result.Table = table
	result.Replaced = replace
	result.Rows = len(d.Records)
	s.logger.Info("table loaded",
		slog.String("table", table),
		slog.Int("rows", result.Rows),
		slog.Bool("replaced", replace),
		slog.String("schema", result.Schema.String()))
	return nil
}

// renameTarget returns "{table}_{timestamp}", with a counter suffix when
// that name is taken
func (s *Session) renameTarget(ctx context.Context, table string) (string, error) {
	base := fmt.Sprintf("%s_%s", table, s.now().Format(renameLayout))
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.store.tableExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
}

// LoadFile reads a tabular file and resolves it into table. An empty table
// name is derived from the file name.
func (s *Session) LoadFile(ctx context.Context, path, table string, action model.ConflictAction) (*IngestResult, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if action == "" {
		action = s.cfg.ConflictAction
	}
	if table == "" {
		table = TableNameFromPath(path)
	} else {
		table = model.NewTableName(table).String()
	}
	ec := NewErrorContext("load", path).WithTable(table)

	if err := validatePath(path); err != nil {
		return nil, s.ingestFailure(ec.Error(err))
	}

	d, err := newInputFile(path).toDataset()
	if err != nil {
		return nil, s.ingestFailure(ec.WithDetails("read").Error(err))
	}
	return s.LoadDataset(ctx, table, d, action)
}

// LoadReader reads tabular content from r and resolves it into table. name
// selects the format by its extensions, for example "orders.tsv.gz".
func (s *Session) LoadReader(ctx context.Context, r io.Reader, name, table string, action model.ConflictAction) (*IngestResult, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if table == "" {
		return nil, errors.New("table name is required when loading from a reader")
	}
	table = model.NewTableName(table).String()
	ec := NewErrorContext("load", name).WithTable(table)

	in := newReaderInput(name, r)
	if in.fileType == FileTypeUnsupported {
		return nil, s.ingestFailure(ec.Error(fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)))
	}
	d, err := in.toDataset()
	if err != nil {
		return nil, s.ingestFailure(ec.WithDetails("read").Error(err))
	}
	return s.LoadDataset(ctx, table, d, action)
}

// LoadDataset infers the schema of d and resolves it into table.
func (s *Session) LoadDataset(ctx context.Context, table string, d *model.Dataset, action model.ConflictAction) (*IngestResult, error) {
	if s.closed {
		return nil, ErrClosed
	}
	schema, err := model.InferSchema(d)
	if err != nil {
		return nil, s.ingestFailure(NewErrorContext("infer", "").WithTable(table).
			Error(fmt.Errorf("%w: %w", ErrInvalidData, err)))
	}
	if action == "" {
		action = s.cfg.ConflictAction
	}
	return s.Resolve(ctx, table, d, schema, action)
}

// ingestFailure logs an ingestion error to the logger and the error log
func (s *Session) ingestFailure(err error) error {
	s.logger.Error("ingestion failed", slog.String("error", err.Error()))
	s.errLog.record("ingestion failed", slog.String("error", err.Error()))
	return err
}
