package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/logging"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/repomanager"
)

// IdentityProvider is an external login service that vouches for an email.
type IdentityProvider interface {
	// AuthCodeURL is where the browser is sent to sign in.
	AuthCodeURL(state string) string
	// VerifiedEmail exchanges the callback code for the user's verified email.
	VerifiedEmail(ctx context.Context, code string) (string, error)
}

const oauthStateTTL = 10 * time.Minute

// OAuthLogin drives the redirect round trip with an IdentityProvider.
type OAuthLogin struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	identities  *IdentityStore
	provider    IdentityProvider
	now         func() time.Time
	newState    func() (string, error)
	logger      logging.Logger
}

func NewOAuthLogin(db *sql.DB, m repomanager.RepositoryManager, identities *IdentityStore,
	provider IdentityProvider, logger logging.Logger) *OAuthLogin {

	if logger == nil {
		logger = logging.Nop()
	}
	return &OAuthLogin{
		db:          db,
		repomanager: m,
		identities:  identities,
		provider:    provider,
		now:         nowUTC,
		newState:    func() (string, error) { return common.MakeRandHexString(16) },
		logger:      logger,
	}
}

// Begin stores a fresh state value and returns the provider URL to redirect to.
func (o *OAuthLogin) Begin(ctx context.Context) (string, error) {
	state, err := o.newState()
	if err != nil {
		return "", common.ErrorInternal
	}

	repo := o.repomanager.OAuthStates(o.db)
	now := o.now()

	if n, err := repo.DeleteExpired(ctx, now); err != nil {
		o.logger.Warn(ctx, "could not purge expired oauth states", "error", err)
	} else if n > 0 {
		o.logger.Debug(ctx, "purged expired oauth states", "count", n)
	}

	if err := repo.Create(ctx, state, now, oauthStateTTL); err != nil {
		return "", fmt.Errorf("error storing oauth state: %w", err)
	}

	return o.provider.AuthCodeURL(state), nil
}

// Complete consumes state, asks the provider for the verified email behind
// code and returns the matching user, creating it on first login.
// Unknown, reused or expired states yield common.ErrorUnauthorized.
func (o *OAuthLogin) Complete(ctx context.Context, state, code string) (*models.User, error) {
	s, err := o.repomanager.OAuthStates(o.db).Consume(ctx, state)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if !s.ExpiresAt.After(o.now()) {
		return nil, common.ErrorUnauthorized
	}

	email, err := o.provider.VerifiedEmail(ctx, code)
	if err != nil {
		o.logger.Warn(ctx, "identity provider rejected login", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}

	return o.identities.CreateOrGetExternalUser(ctx, email)
}
