package chatsheet

import (
	"context"
	"log/slog"

	"github.com/nao1215/chatsheet/domain/model"
)

// Snapshot reads every user table with its columns and up to three sample
// rows. A failed sample affects only that table.
func (s *Session) Snapshot(ctx context.Context) (*model.SchemaSnapshot, error) {
	if s.closed {
		return nil, ErrClosed
	}

	names, err := s.store.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	snap := &model.SchemaSnapshot{Tables: make([]model.TableDescriptor, 0, len(names))}
	for _, name := range names {
		columns, err := s.store.columns(ctx, name)
		if err != nil {
			return nil, err
		}
		td := model.TableDescriptor{Name: name, Columns: columns}
		td.Sample, td.SampleErr = s.store.sample(ctx, name, model.SampleLimit)
		if td.SampleErr != nil {
			s.logger.Debug("sample rows unavailable",
				slog.String("table", name), slog.String("error", td.SampleErr.Error()))
		}
		snap.Tables = append(snap.Tables, td)
	}
	return snap, nil
}

// SchemaText renders the current schema the way it is sent to the model.
func (s *Session) SchemaText(ctx context.Context) (string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return snap.Text(), nil
}

// Tables lists the user tables.
func (s *Session) Tables(ctx context.Context) ([]string, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.store.tableNames(ctx)
}
