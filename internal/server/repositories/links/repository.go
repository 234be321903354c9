// Package links persists shareable link tokens. Rows are append-only: a
// user's active link is whichever token users.current_link points at.
package links

import (
	"context"

	"github.com/dmitrijs2005/anoninbox/internal/server/models"
)

type Repository interface {
	// Create stores a new link. A clashing token yields common.ErrorAlreadyExists.
	Create(ctx context.Context, link *models.Link) error
	// Exists reports whether any link, active or not, uses token.
	Exists(ctx context.Context, token string) (bool, error)
	// ResolveActive returns the owner whose current link is token.
	ResolveActive(ctx context.Context, token string) (*models.User, error)
	// ListByOwner returns every link the user ever had, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error)
}
