// Package httpapi exposes the inbox workflow as a JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/logging"
	"github.com/dmitrijs2005/anoninbox/internal/server/config"
	"github.com/dmitrijs2005/anoninbox/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the services the API delegates to. OAuth may be nil, which
// disables the Google login routes.
type Deps struct {
	Identities *services.IdentityStore
	Links      *services.LinkRegistry
	Inbox      *services.Inbox
	OAuth      *services.OAuthLogin
	DB         Pinger
}

type Server struct {
	address       string
	logger        logging.Logger
	deps          Deps
	secret        []byte
	sessionTTL    time.Duration
	cookieName    string
	secureCookies bool
	baseURL       string
	now           func() time.Time
}

func NewServer(cfg *config.Config, l logging.Logger, deps Deps) *Server {
	return &Server{
		address:       cfg.HTTPAddr,
		logger:        l.With("module", "http_server"),
		deps:          deps,
		secret:        []byte(cfg.SecretKey),
		sessionTTL:    cfg.SessionTTL,
		cookieName:    cfg.CookieName,
		secureCookies: cfg.SecureCookies,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		now:           time.Now,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Get("/l/{token}", s.handleResolveLink)
	r.Post("/l/{token}", s.handleSubmitAnonymous)

	r.Route("/auth/google", func(r chi.Router) {
		r.Get("/login", s.handleGoogleLogin)
		r.Get("/callback", s.handleGoogleCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.With(s.optionalAuth).Post("/messages", s.handleSubmitAuthenticated)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/me", s.handleMe)
			r.Get("/inbox", s.handleInbox)
			r.Post("/messages/{id}/report", s.handleReport)
			r.Post("/link", s.handleRegenerateLink)
			r.Get("/links", s.handleLinks)
		})
	})

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
