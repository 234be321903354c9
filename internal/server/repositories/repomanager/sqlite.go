package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/anoninbox/internal/dbx"
	"github.com/dmitrijs2005/anoninbox/internal/server/migrations"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/links"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/messages"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/oauthstates"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/reports"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends the same SQL repositories as the PostgreSQL
// manager with placeholders rewritten for SQLite.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(dbx.SQLite(db))
}

func (m *SQLiteRepositoryManager) Links(db dbx.DBTX) links.Repository {
	return links.NewSQLRepository(dbx.SQLite(db))
}

func (m *SQLiteRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewSQLRepository(dbx.SQLite(db))
}

func (m *SQLiteRepositoryManager) Reports(db dbx.DBTX) reports.Repository {
	return reports.NewSQLRepository(dbx.SQLite(db))
}

func (m *SQLiteRepositoryManager) OAuthStates(db dbx.DBTX) oauthstates.Repository {
	return oauthstates.NewSQLRepository(dbx.SQLite(db))
}

// RunMigrations applies the embedded SQLite migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, "sqlite")
}
