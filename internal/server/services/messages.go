package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/dbx"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/repomanager"
)

// MessageStore appends and lists inbox messages. Appends are serialized
// store-wide so IDs are assigned in call order.
type MessageStore struct {
	mu          sync.Mutex
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewMessageStore(db *sql.DB, m repomanager.RepositoryManager) *MessageStore {
	return &MessageStore{db: db, repomanager: m, now: nowUTC}
}

// Append stores a message for recipientID. Empty or whitespace-only content
// yields common.ErrInvalidInput.
func (s *MessageStore) Append(ctx context.Context, recipientID int64, content string, isAnonymous bool) (*models.Message, error) {
	msg, err := models.NewMessage(recipientID, content, isAnonymous, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendTx(ctx, s.db, msg)
}

// appendTx must be called with s.mu held.
func (s *MessageStore) appendTx(ctx context.Context, tx dbx.DBTX, msg *models.Message) (*models.Message, error) {
	return s.repomanager.Messages(tx).Create(ctx, msg)
}

// ListForRecipient returns recipientID's messages, newest first.
func (s *MessageStore) ListForRecipient(ctx context.Context, recipientID int64) ([]models.Message, error) {
	return s.repomanager.Messages(s.db).ListByRecipient(ctx, recipientID)
}

func (s *MessageStore) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	return s.repomanager.Messages(s.db).GetByID(ctx, id)
}
