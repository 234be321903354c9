package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/logging"
	"github.com/dmitrijs2005/anoninbox/internal/server/auth"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const userKey ctxKey = "user"

const requestIDHeader = "X-Request-ID"

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// currentUser returns the signed-in user, or nil.
func currentUser(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

// requestID tags the request with the caller's X-Request-ID or a new UUID.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func extractBearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// sessionUser resolves the session token from the Authorization header
// (preferred) or the session cookie. It returns nil, nil when none is sent.
func (s *Server) sessionUser(r *http.Request) (*models.User, error) {
	raw := extractBearer(r.Header.Get("Authorization"))
	if raw == "" {
		if c, err := r.Cookie(s.cookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return nil, nil
	}

	userID, err := auth.GetUserIDFromToken(raw, s.secret)
	if err != nil {
		return nil, err
	}

	user, err := s.deps.Identities.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessionUser(r)
		if err == nil && user == nil {
			err = common.ErrorUnauthorized
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// optionalAuth attaches the user when a valid session is presented and
// rejects invalid ones, but lets anonymous requests through.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessionUser(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if user != nil {
			r = r.WithContext(withUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}
