package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/dbx"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO messages (content, sent_at, recipient_id, is_anonymous)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		msg.Content, msg.Timestamp, msg.RecipientID, msg.IsAnonymous).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query :=
		`SELECT id, content, sent_at, recipient_id, is_anonymous
		 FROM messages
		 WHERE id = $1`

	msg := &models.Message{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&msg.ID, &msg.Content, &msg.Timestamp, &msg.RecipientID, &msg.IsAnonymous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	msg.Timestamp = msg.Timestamp.UTC()

	return msg, nil
}

func (r *SQLRepository) ListByRecipient(ctx context.Context, recipientID int64) ([]models.Message, error) {
	query :=
		`SELECT id, content, sent_at, recipient_id, is_anonymous
		 FROM messages
		 WHERE recipient_id = $1
		 ORDER BY sent_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Content, &m.Timestamp, &m.RecipientID, &m.IsAnonymous); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
