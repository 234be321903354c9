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

// ReportStore keeps submission metadata and the abuse reports built from it.
type ReportStore struct {
	mu          sync.Mutex
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewReportStore(db *sql.DB, m repomanager.RepositoryManager) *ReportStore {
	return &ReportStore{db: db, repomanager: m, now: nowUTC}
}

// CaptureSubmissionMetadata records who sent messageID.
func (s *ReportStore) CaptureSubmissionMetadata(ctx context.Context, messageID int64, ip, userAgent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.captureTx(ctx, s.db, messageID, ip, userAgent)
}

// captureTx must be called with s.mu held.
func (s *ReportStore) captureTx(ctx context.Context, tx dbx.DBTX, messageID int64, ip, userAgent string) error {
	return s.repomanager.Reports(tx).CreateMetadata(ctx, &models.SubmissionMetadata{
		MessageID: messageID,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: s.now(),
	})
}

// FileReport stores a report with a snapshot of the message content and,
// when present, the sender metadata.
func (s *ReportStore) FileReport(ctx context.Context, messageID, reporterID int64, content string,
	meta *models.SubmissionMetadata) (*models.Report, error) {

	report := models.NewReport(&models.Message{ID: messageID, Content: content}, reporterID, meta, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repomanager.Reports(s.db).Create(ctx, report)
}

// GetMetadataForMessage yields common.ErrorNotFound for messages that were
// not sent through a link.
func (s *ReportStore) GetMetadataForMessage(ctx context.Context, messageID int64) (*models.SubmissionMetadata, error) {
	return s.repomanager.Reports(s.db).GetMetadata(ctx, messageID)
}

func (s *ReportStore) ListByReporter(ctx context.Context, reporterID int64) ([]models.Report, error) {
	return s.repomanager.Reports(s.db).ListByReporter(ctx, reporterID)
}

func (s *ReportStore) ListAll(ctx context.Context) ([]models.Report, error) {
	return s.repomanager.Reports(s.db).ListAll(ctx)
}
