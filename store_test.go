package chatsheet

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/nao1215/chatsheet/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newStore(sqlx.NewDb(db, "sqlmock")), mock
}

func TestStore_ExecScript(t *testing.T) {
	t.Parallel()

	t.Run("commits", func(t *testing.T) {
		t.Parallel()

		st, mock := newMockStore(t)
		script := "INSERT INTO t VALUES (1); INSERT INTO t VALUES (2);"
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(script)).WillReturnResult(sqlmock.NewResult(2, 2))
		mock.ExpectCommit()

		require.NoError(t, st.execScript(context.Background(), script))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		t.Parallel()

		st, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM missing").WillReturnError(errors.New("no such table: missing"))
		mock.ExpectRollback()

		err := st.execScript(context.Background(), "DELETE FROM missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such table: missing")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("own transaction runs without a wrapper", func(t *testing.T) {
		t.Parallel()

		st, mock := newMockStore(t)
		script := "BEGIN TRANSACTION; INSERT INTO t VALUES (5); COMMIT;"
		mock.ExpectExec(regexp.QuoteMeta(script)).WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, st.execScript(context.Background(), script))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("own transaction is rolled back on failure", func(t *testing.T) {
		t.Parallel()

		st, mock := newMockStore(t)
		script := "BEGIN; INSERT INTO missing VALUES (5); COMMIT;"
		mock.ExpectExec(regexp.QuoteMeta(script)).WillReturnError(errors.New("no such table: missing"))
		mock.ExpectExec("ROLLBACK").WillReturnResult(sqlmock.NewResult(0, 0))

		err := st.execScript(context.Background(), script)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such table: missing")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_WriteTable(t *testing.T) {
	t.Parallel()

	schema := model.InferredSchema{{Name: "id", Type: "INTEGER"}, {Name: "name", Type: "TEXT"}}
	d := model.NewDataset(model.NewHeader([]string{"id", "name"}), []model.Record{
		{"1", "apple"},
		{"2", ""},
	})

	t.Run("replace drops then creates in one transaction", func(t *testing.T) {
		t.Parallel()

		st, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "items"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "items" ("id" INTEGER, "name" TEXT)`)).WillReturnResult(sqlmock.NewResult(0, 0))
		prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "items" VALUES (?, ?)`))
		prep.ExpectExec().WithArgs(int64(1), "apple").WillReturnResult(sqlmock.NewResult(1, 1))
		prep.ExpectExec().WithArgs(int64(2), nil).WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		require.NoError(t, st.writeTable(context.Background(), "items", schema, d, true))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		t.Parallel()

		st, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "items"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "items"`))
		prep.ExpectExec().WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := st.writeTable(context.Background(), "items", schema, d, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBuildQueries(t *testing.T) {
	t.Parallel()

	schema := model.InferredSchema{{Name: "first name", Type: "TEXT"}, {Name: `a"b`, Type: "REAL"}}
	assert.Equal(t, `CREATE TABLE "my table" ("first name" TEXT, "a""b" REAL)`, buildCreateTableQuery("my table", schema))
	assert.Equal(t, `INSERT INTO "t" VALUES (?, ?, ?)`, buildInsertQuery("t", 3))
}
