// Package messages persists inbox messages.
package messages

import (
	"context"

	"github.com/dmitrijs2005/anoninbox/internal/server/models"
)

type Repository interface {
	// Create inserts msg and assigns its store-wide ID.
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	// ListByRecipient returns the recipient's messages, newest first,
	// ties broken by descending ID.
	ListByRecipient(ctx context.Context, recipientID int64) ([]models.Message, error)
}
