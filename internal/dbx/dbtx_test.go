package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT UNIQUE);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('ok')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('fail')`)
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.Error(t, err)

	require.Equal(t, 0, countRows(t, db), "must rollback when fn returns error")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err, "begin should fail when DB is closed")
	assert.ErrorContains(t, err, "begin tx")
}

func TestWithTx_CommitAndRollbackErrors(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("disk full"))

		err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error { return nil })
		assert.EqualError(t, err, "commit tx: disk full")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("conn reset"))

		fnErr := errors.New("boom")
		err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error { return fnErr })
		assert.ErrorIs(t, err, fnErr)
		assert.ErrorContains(t, err, "rollback tx: conn reset")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLite_RewritesNumberedPlaceholders(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	lite := SQLite(db)

	_, err := lite.ExecContext(ctx, `INSERT INTO t(id, v) VALUES ($1, $2)`, 5, "five")
	require.NoError(t, err)

	var v string
	require.NoError(t, lite.QueryRowContext(ctx, `SELECT v FROM t WHERE id = $1 AND v = $2`, 5, "five").Scan(&v))
	assert.Equal(t, "five", v)

	rows, err := lite.QueryContext(ctx, `SELECT id FROM t WHERE id >= $1`, 1)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	require.NoError(t, rows.Err())
}

func TestSQLite_DoesNotDoubleWrap(t *testing.T) {
	db := setupDB(t)
	once := SQLite(db)
	assert.Equal(t, once, SQLite(once))
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT ?1, ?2", rebind("SELECT $1, $2"))
	assert.Equal(t, "SELECT 1", rebind("SELECT 1"))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("postgres unique violation", func(t *testing.T) {
		err := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("postgres other error", func(t *testing.T) {
		err := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
		assert.False(t, IsUniqueViolation(err))
	})

	t.Run("sqlite unique violation", func(t *testing.T) {
		db := setupDB(t)
		_, err := db.Exec(`INSERT INTO t(v) VALUES ('dup')`)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO t(v) VALUES ('dup')`)
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, IsUniqueViolation(errors.New("boom")))
		assert.False(t, IsUniqueViolation(nil))
	})
}
