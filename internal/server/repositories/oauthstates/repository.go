// Package oauthstates stores the single-use state values that protect the
// external login round trip against forgery.
package oauthstates

import (
	"context"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/server/models"
)

// Repository issues, looks up and consumes OAuth state values.
type Repository interface {
	// Create stores state with an expiry of now+validity.
	Create(ctx context.Context, state string, now time.Time, validity time.Duration) error

	// Find returns common.ErrorNotFound when the state is unknown.
	Find(ctx context.Context, state string) (*models.OAuthState, error)

	// Consume removes state and returns it in one statement, so a state can
	// be consumed once. Unknown or already consumed states yield
	// common.ErrorNotFound.
	Consume(ctx context.Context, state string) (*models.OAuthState, error)

	// DeleteExpired drops every state that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
