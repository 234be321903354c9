// Package repomanager vends repositories bound to a database handle or an
// open transaction and owns the schema migrations of each supported driver.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/anoninbox/internal/dbx"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/links"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/messages"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/oauthstates"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/reports"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Links(db dbx.DBTX) links.Repository
	Messages(db dbx.DBTX) messages.Repository
	Reports(db dbx.DBTX) reports.Repository
	OAuthStates(db dbx.DBTX) oauthstates.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}
