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
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *PostgresRepositoryManager) Links(db dbx.DBTX) links.Repository {
	return links.NewSQLRepository(db)
}

func (m *PostgresRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewSQLRepository(db)
}

func (m *PostgresRepositoryManager) Reports(db dbx.DBTX) reports.Repository {
	return reports.NewSQLRepository(db)
}

func (m *PostgresRepositoryManager) OAuthStates(db dbx.DBTX) oauthstates.Repository {
	return oauthstates.NewSQLRepository(db)
}

// RunMigrations applies the embedded PostgreSQL migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Postgres)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, "postgres")
}
