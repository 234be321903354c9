// Package server wires configuration, storage and services together and runs
// the HTTP API alongside the gRPC health endpoint until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/logging"
	"github.com/dmitrijs2005/anoninbox/internal/server/archive"
	"github.com/dmitrijs2005/anoninbox/internal/server/config"
	"github.com/dmitrijs2005/anoninbox/internal/server/httpapi"
	"github.com/dmitrijs2005/anoninbox/internal/server/notify"
	"github.com/dmitrijs2005/anoninbox/internal/server/oauth"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/anoninbox/internal/server/services"

	gs "github.com/dmitrijs2005/anoninbox/internal/server/grpc"
)

const healthInterval = 15 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
	health *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	db, rm, err := repomanager.Open(c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	listeners, err := reportListeners(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	links := services.NewLinkRegistry(db, rm, services.WithLinkLogger(logger))
	identities := services.NewIdentityStore(db, rm, links, c.BcryptCost)
	inbox := services.NewInbox(db, identities, links,
		services.NewMessageStore(db, rm), services.NewReportStore(db, rm), logger, listeners...)

	var login *services.OAuthLogin
	if c.GoogleEnabled() {
		redirect := strings.TrimRight(c.BaseURL, "/") + "/auth/google/callback"
		provider := oauth.NewGoogleProvider(c.GoogleClientID, c.GoogleClientSecret, redirect)
		login = services.NewOAuthLogin(db, rm, identities, provider, logger)
	}

	api := httpapi.NewServer(c, logger, httpapi.Deps{
		Identities: identities,
		Links:      links,
		Inbox:      inbox,
		OAuth:      login,
		DB:         db,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   api,
		health: gs.NewHealthServer(c.GRPCHealthAddr, logger, db, healthInterval),
	}, nil
}

// reportListeners builds the optional report sinks enabled in c.
func reportListeners(ctx context.Context, c *config.Config) ([]services.ReportListener, error) {
	var ls []services.ReportListener

	if c.ArchiveEnabled() {
		a, err := archive.NewS3Archiver(ctx, archive.Options{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		ls = append(ls, a)
	}

	if c.NotifyEnabled() {
		ls = append(ls, notify.NewMailgunNotifier(c.MailgunDomain, c.MailgunAPIKey, c.MailgunFrom, c.AbuseEmail))
	}

	return ls, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
