package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *SQLRepository) Create(ctx context.Context, link *models.Link) error {
	query :=
		`INSERT INTO links (token, user_id, created_at)
		 VALUES ($1, $2, $3)`

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	if _, err := r.db.ExecContext(ctx, query, link.Token, link.OwnerID, link.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) Exists(ctx context.Context, token string) (bool, error) {
	query := `SELECT COUNT(*) FROM links WHERE token = $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n > 0, nil
}

func (r *SQLRepository) ResolveActive(ctx context.Context, token string) (*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.created_at
		 FROM links l
		 JOIN users u ON u.id = l.user_id AND u.current_link = l.token
		 WHERE l.token = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&user.ID, &user.UserName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CurrentLink = &token
	user.CreatedAt = user.CreatedAt.UTC()

	return user, nil
}

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error) {
	query :=
		`SELECT l.token, l.user_id, u.username, l.created_at
		 FROM links l
		 JOIN users u ON u.id = l.user_id
		 WHERE l.user_id = $1
		 ORDER BY l.created_at DESC, l.token`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Link, 0)
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Token, &l.OwnerID, &l.OwnerName, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		result = append(result, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
