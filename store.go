package chatsheet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/nao1215/chatsheet/domain/model"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// driverName is the database/sql driver registered by modernc.org/sqlite
const driverName = "sqlite"

// MemoryDSN opens a private in-memory store.
const MemoryDSN = ":memory:"

// store is the relational store behind a session
type store struct {
	db *sqlx.DB
}

// openStore opens the SQLite database at dsn. The pool is limited to one
// connection so that an in-memory database survives between calls.
func openStore(ctx context.Context, dsn string) (*store, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() // Ignore close error during error handling
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return newStore(db), nil
}

// newStore wraps an open database handle
func newStore(db *sqlx.DB) *store {
	return &store{db: db}
}

// close releases the database
func (s *store) close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// execScript runs one or more statements in a single transaction and commits.
// A failure rolls the whole script back. Scripts that manage their own
// transaction run in autocommit mode instead.
func (s *store) execScript(ctx context.Context, script string) (err error) {
	if model.HasTransactionControl(script) {
		return s.execAutocommit(ctx, script)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() // Ignore rollback error, the exec error is reported
		}
	}()

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// execAutocommit runs a script on one pinned connection without an outer
// transaction. A transaction the script left open is rolled back on failure.
func (s *store) execAutocommit(ctx context.Context, script string) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, script); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK") // Fails harmlessly when no transaction is open
		return err
	}
	return nil
}

// query runs a single SELECT and keeps the store's column and row order
func (s *store) query(ctx context.Context, query string) (*model.ResultSet, error) {
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rs := &model.ResultSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("unable to scan row: %w", err)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// tableNames lists user tables in creation order
func (s *store) tableNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, `
		SELECT name
		FROM sqlite_master
		WHERE type='table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	return names, nil
}

// tableExists reports whether a user table with the exact name exists
func (s *store) tableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := s.db.GetContext(ctx, &name,
		`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return true, nil
}

// tableInfo is one row of PRAGMA table_info
type tableInfo struct {
	CID          int            `db:"cid"`
	Name         string         `db:"name"`
	Type         string         `db:"type"`
	NotNull      int            `db:"notnull"`
	DefaultValue sql.NullString `db:"dflt_value"`
	PK           int            `db:"pk"`
}

// columns returns the declared columns of a table in definition order
func (s *store) columns(ctx context.Context, table string) ([]model.ColumnDescriptor, error) {
	var infos []tableInfo
	query := "PRAGMA table_info(" + model.QuoteIdentifier(table) + ")"
	if err := s.db.SelectContext(ctx, &infos, query); err != nil {
		return nil, fmt.Errorf("failed to load columns for table %s: %w", table, err)
	}

	columns := make([]model.ColumnDescriptor, 0, len(infos))
	for _, info := range infos {
		columns = append(columns, model.ColumnDescriptor{
			Name:       info.Name,
			Type:       info.Type,
			PrimaryKey: info.PK > 0,
		})
	}
	return columns, nil
}

// sample returns up to limit rows of a table
func (s *store) sample(ctx context.Context, table string, limit int) (*model.ResultSet, error) {
	return s.query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", model.QuoteIdentifier(table), limit))
}

// writeTable creates table from the schema and inserts every record in one
// transaction. When replace is set an existing table is dropped first.
func (s *store) writeTable(ctx context.Context, table string, schema model.InferredSchema, d *model.Dataset, replace bool) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() // Ignore rollback error, the original error is reported
		}
	}()

	if replace {
		if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+model.QuoteIdentifier(table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	if _, err = tx.ExecContext(ctx, buildCreateTableQuery(table, schema)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	if len(d.Records) > 0 {
		stmt, prepErr := tx.PreparexContext(ctx, buildInsertQuery(table, len(schema)))
		if prepErr != nil {
			err = fmt.Errorf("failed to prepare insert: %w", prepErr)
			return err
		}
		defer stmt.Close()

		for i, record := range d.Records {
			args := make([]any, len(schema))
			for j, col := range schema {
				value := ""
				if j < len(record) {
					value = record[j]
				}
				args[j] = model.ConvertValue(value, col.Type)
			}
			if _, err = stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert record %d into %s: %w", i+1, table, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// buildCreateTableQuery constructs a CREATE TABLE query for the schema
func buildCreateTableQuery(table string, schema model.InferredSchema) string {
	columns := make([]string, 0, len(schema))
	for _, col := range schema {
		columns = append(columns, fmt.Sprintf("%s %s", model.QuoteIdentifier(col.Name), col.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", model.QuoteIdentifier(table), strings.Join(columns, ", "))
}

// buildInsertQuery constructs a positional INSERT query
func buildInsertQuery(table string, count int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", model.QuoteIdentifier(table), placeholders)
}
