package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/dbx"
	"github.com/dmitrijs2005/anoninbox/internal/logging"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/links"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/repomanager"
)

// errTokenTaken reports that another writer inserted the same token after
// the existence check.
var errTokenTaken = errors.New("link token taken on insert")

// LinkRegistry issues and resolves shareable link tokens.
type LinkRegistry struct {
	mu          sync.Mutex
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	random      io.Reader
	now         func() time.Time
	logger      logging.Logger
}

// LinkOption customizes a LinkRegistry.
type LinkOption func(*LinkRegistry)

// WithTokenSource replaces crypto/rand as the source of token bytes.
func WithTokenSource(r io.Reader) LinkOption {
	return func(l *LinkRegistry) { l.random = r }
}

// WithLinkLogger sets the logger used to report token collisions.
func WithLinkLogger(log logging.Logger) LinkOption {
	return func(l *LinkRegistry) { l.logger = log }
}

func NewLinkRegistry(db *sql.DB, m repomanager.RepositoryManager, opts ...LinkOption) *LinkRegistry {
	l := &LinkRegistry{
		db:          db,
		repomanager: m,
		random:      rand.Reader,
		now:         nowUTC,
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GenerateToken returns a token that no link, active or stale, uses yet.
func (l *LinkRegistry) GenerateToken(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.generateToken(ctx, l.repomanager.Links(l.db))
}

// IssueLink gives owner a fresh active link. Previous links stay in the
// history but stop resolving.
func (l *LinkRegistry) IssueLink(ctx context.Context, owner *models.User) (*models.Link, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var link *models.Link
	err := l.withLinkTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		link, err = l.issueTx(ctx, tx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}

	owner.CurrentLink = &link.Token
	return link, nil
}

// createOwner runs create inside a transaction under the registry lock and,
// when create reports a newly inserted user, issues that user's first link
// in the same transaction.
func (l *LinkRegistry) createOwner(ctx context.Context,
	create func(ctx context.Context, tx dbx.DBTX) (user *models.User, created bool, err error)) (*models.User, error) {

	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		user *models.User
		link *models.Link
	)
	err := l.withLinkTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		u, created, err := create(ctx, tx)
		if err != nil {
			return err
		}
		link = nil
		if created {
			if link, err = l.issueTx(ctx, tx, u); err != nil {
				return err
			}
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if link != nil {
		user.CurrentLink = &link.Token
	}
	return user, nil
}

// withLinkTx runs fn in a transaction and starts over in a new one when a
// token was taken between the existence check and the insert. The failed
// insert may have aborted the transaction, so it is never reused.
func (l *LinkRegistry) withLinkTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	for {
		err := dbx.WithTx(ctx, l.db, nil, fn)
		if !errors.Is(err, errTokenTaken) {
			return err
		}
		l.logger.Warn(ctx, "link token taken on insert, retrying")
	}
}

// issueTx must be called with l.mu held. It leaves owner untouched; callers
// record the new link on owner once the transaction has committed.
func (l *LinkRegistry) issueTx(ctx context.Context, tx dbx.DBTX, owner *models.User) (*models.Link, error) {
	linksRepo := l.repomanager.Links(tx)

	token, err := l.generateToken(ctx, linksRepo)
	if err != nil {
		return nil, err
	}

	link, err := models.NewLink(token, owner)
	if err != nil {
		return nil, err
	}
	link.CreatedAt = l.now()

	err = linksRepo.Create(ctx, link)
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil, fmt.Errorf("user %d: %w", owner.ID, errTokenTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating link: %w", err)
	}

	if err := l.repomanager.Users(tx).SetCurrentLink(ctx, owner.ID, token); err != nil {
		return nil, fmt.Errorf("error activating link: %w", err)
	}

	return link, nil
}

// generateToken must be called with l.mu held.
func (l *LinkRegistry) generateToken(ctx context.Context, repo links.Repository) (string, error) {
	for {
		token, err := randomToken(l.random)
		if err != nil {
			return "", fmt.Errorf("error reading token source: %w", err)
		}

		exists, err := repo.Exists(ctx, token)
		if err != nil {
			return "", err
		}
		if !exists {
			return token, nil
		}

		l.logger.Debug(ctx, "link token collision, retrying")
	}
}

// randomToken draws LinkTokenLength symbols from LinkAlphabet. The alphabet
// has 64 symbols, so masking one byte with 63 picks uniformly.
func randomToken(r io.Reader) (string, error) {
	buf := make([]byte, common.LinkTokenLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = common.LinkAlphabet[b&63]
	}
	return string(buf), nil
}

// Resolve returns the owner of the active link token. Stale, unknown and
// malformed tokens yield common.ErrorNotFound.
func (l *LinkRegistry) Resolve(ctx context.Context, token string) (*models.User, error) {
	if err := models.ValidateToken(token); err != nil {
		return nil, common.ErrorNotFound
	}
	return l.repomanager.Links(l.db).ResolveActive(ctx, token)
}

// History lists every link ownerID ever had, newest first.
func (l *LinkRegistry) History(ctx context.Context, ownerID int64) ([]models.Link, error) {
	return l.repomanager.Links(l.db).ListByOwner(ctx, ownerID)
}
