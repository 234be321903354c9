package repomanager

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/anoninbox/internal/filex"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open connects to the database named by driver and returns the matching
// repository manager. SQLite handles are limited to a single connection so
// that writers serialize instead of failing with SQLITE_BUSY.
func Open(driver, dsn string) (*sql.DB, RepositoryManager, error) {
	switch driver {
	case DriverPostgres:
		db, err := sqlOpen("pgx", dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, NewPostgresRepositoryManager(), nil

	case DriverSQLite, "":
		if path := sqliteFile(dsn); path != "" {
			if _, err := filex.EnsureParentDir(path); err != nil {
				return nil, nil, err
			}
		}
		db, err := sqlOpen("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(1)
		return db, NewSQLiteRepositoryManager(), nil
	}

	return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// sqliteFile returns the filesystem path named by dsn, or "" for in-memory
// databases.
func sqliteFile(dsn string) string {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return path
}
