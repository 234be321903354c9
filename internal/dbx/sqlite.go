package dbx

import (
	"context"
	"database/sql"
	"strings"
)

// sqliteDBTX rewrites PostgreSQL positional placeholders ($1, $2, ...) into
// SQLite numbered parameters (?1, ?2, ...) so repositories keep one query text.
type sqliteDBTX struct {
	db DBTX
}

// SQLite adapts db so queries written with $N placeholders run on SQLite.
// Queries must not contain a literal '$'.
func SQLite(db DBTX) DBTX {
	if s, ok := db.(sqliteDBTX); ok {
		return s
	}
	return sqliteDBTX{db: db}
}

func rebind(query string) string {
	return strings.ReplaceAll(query, "$", "?")
}

func (s sqliteDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, rebind(query), args...)
}

func (s sqliteDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, rebind(query), args...)
}

func (s sqliteDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, rebind(query), args...)
}
