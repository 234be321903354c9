// Package users declares and implements persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/anoninbox/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its ID. A clashing username or email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, userName string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// SetCurrentLink points the user at their active link token.
	SetCurrentLink(ctx context.Context, userID int64, token string) error
}
