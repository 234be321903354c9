package oauthstates

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

func (r *SQLRepository) Create(ctx context.Context, state string, now time.Time, validity time.Duration) error {
	query :=
		`INSERT INTO oauth_states (state, expires_at, created_at)
		 VALUES ($1, $2, $3)`

	now = now.UTC().Truncate(time.Microsecond)
	if _, err := r.db.ExecContext(ctx, query, state, now.Add(validity), now); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Find(ctx context.Context, state string) (*models.OAuthState, error) {
	query :=
		`SELECT state, expires_at, created_at
		 FROM oauth_states
		 WHERE state = $1`

	s := &models.OAuthState{}
	if err := r.db.QueryRowContext(ctx, query, state).Scan(&s.State, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// Consume deletes state and returns the removed row. Of several concurrent
// callers at most one gets the row; the others see common.ErrorNotFound.
func (r *SQLRepository) Consume(ctx context.Context, state string) (*models.OAuthState, error) {
	query :=
		`DELETE FROM oauth_states
		 WHERE state = $1
		 RETURNING state, expires_at, created_at`

	s := &models.OAuthState{}
	if err := r.db.QueryRowContext(ctx, query, state).Scan(&s.State, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM oauth_states WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
