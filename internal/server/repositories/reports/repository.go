// Package reports persists submission metadata of anonymous messages and the
// abuse reports filed against them.
package reports

import (
	"context"

	"github.com/dmitrijs2005/anoninbox/internal/server/models"
)

type Repository interface {
	// CreateMetadata stores the metadata of one message. A second call for the
	// same message fails with common.ErrorAlreadyExists.
	CreateMetadata(ctx context.Context, meta *models.SubmissionMetadata) error
	GetMetadata(ctx context.Context, messageID int64) (*models.SubmissionMetadata, error)

	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	ListByReporter(ctx context.Context, reporterID int64) ([]models.Report, error)
	ListAll(ctx context.Context) ([]models.Report, error)
}
