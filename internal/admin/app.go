// Package admin implements the operator commands of inboxctl: creating
// accounts, reviewing abuse reports and migrating the database.
package admin

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/anoninbox/internal/server/config"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/anoninbox/internal/server/services"
)

var ErrUsage = errors.New("usage: inboxctl [flags] <useradd [username] | reports | migrate | help>")

type App struct {
	config     *config.Config
	db         *sql.DB
	rm         repomanager.RepositoryManager
	identities *services.IdentityStore
	reports    *services.ReportStore
	reader     *bufio.Reader
	out        io.Writer
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	db, rm, err := repomanager.Open(c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	links := services.NewLinkRegistry(db, rm)

	return &App{
		config:     c,
		db:         db,
		rm:         rm,
		identities: services.NewIdentityStore(db, rm, links, c.BcryptCost),
		reports:    services.NewReportStore(db, rm),
		reader:     bufio.NewReader(in),
		out:        out,
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "useradd":
		return a.UserAdd(ctx, rest)
	case "reports":
		return a.Reports(ctx)
	case "migrate":
		return a.Migrate(ctx)
	case "help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
	}
}
