package reports

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

func (r *SQLRepository) CreateMetadata(ctx context.Context, meta *models.SubmissionMetadata) error {
	query :=
		`INSERT INTO submission_metadata (message_id, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, meta.MessageID, meta.IPAddress, meta.UserAgent, meta.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetMetadata(ctx context.Context, messageID int64) (*models.SubmissionMetadata, error) {
	query :=
		`SELECT message_id, ip_address, user_agent, created_at
		 FROM submission_metadata
		 WHERE message_id = $1`

	meta := &models.SubmissionMetadata{}
	err := r.db.QueryRowContext(ctx, query, messageID).
		Scan(&meta.MessageID, &meta.IPAddress, &meta.UserAgent, &meta.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	meta.CreatedAt = meta.CreatedAt.UTC()

	return meta, nil
}

func (r *SQLRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	query :=
		`INSERT INTO reports (message_id, reporter_id, reported_at, message_content, sender_ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		report.MessageID, report.ReporterID, report.ReportedAt,
		report.MessageContent, report.SenderIP, report.UserAgent).Scan(&report.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return report, nil
}

const selectReport = `SELECT id, message_id, reporter_id, reported_at, message_content, sender_ip, user_agent FROM reports`

func (r *SQLRepository) ListByReporter(ctx context.Context, reporterID int64) ([]models.Report, error) {
	return r.list(ctx, selectReport+` WHERE reporter_id = $1 ORDER BY reported_at DESC, id DESC`, reporterID)
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]models.Report, error) {
	return r.list(ctx, selectReport+` ORDER BY reported_at DESC, id DESC`)
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]models.Report, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Report, 0)
	for rows.Next() {
		var (
			rep    models.Report
			ip, ua sql.NullString
		)
		if err := rows.Scan(&rep.ID, &rep.MessageID, &rep.ReporterID, &rep.ReportedAt,
			&rep.MessageContent, &ip, &ua); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if ip.Valid {
			rep.SenderIP = &ip.String
		}
		if ua.Valid {
			rep.UserAgent = &ua.String
		}
		rep.ReportedAt = rep.ReportedAt.UTC()
		result = append(result, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
