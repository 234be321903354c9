package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/dbx"
	"github.com/dmitrijs2005/anoninbox/internal/logging"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
)

// ReportListener is told about every report after it has been stored.
type ReportListener interface {
	ReportFiled(ctx context.Context, report *models.Report) error
}

// Inbox is the workflow behind links, submissions, inboxes and reports.
type Inbox struct {
	db         *sql.DB
	identities *IdentityStore
	links      *LinkRegistry
	messages   *MessageStore
	reports    *ReportStore
	listeners  []ReportListener
	logger     logging.Logger
}

func NewInbox(db *sql.DB, identities *IdentityStore, links *LinkRegistry,
	messages *MessageStore, reports *ReportStore, logger logging.Logger, listeners ...ReportListener) *Inbox {

	if logger == nil {
		logger = logging.Nop()
	}
	return &Inbox{
		db:         db,
		identities: identities,
		links:      links,
		messages:   messages,
		reports:    reports,
		listeners:  listeners,
		logger:     logger,
	}
}

// SubmitAnonymous delivers content to the owner of the active link token and
// records the sender's IP and user agent alongside it. The message and its
// metadata are committed together; if the metadata cannot be stored nothing
// is committed and a *common.IntegrityError is returned.
func (i *Inbox) SubmitAnonymous(ctx context.Context, token, content, clientIP, userAgent string) (*models.Message, error) {
	owner, err := i.links.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidLink
		}
		return nil, err
	}

	msg, err := models.NewMessage(owner.ID, content, true, i.messages.now())
	if err != nil {
		return nil, err
	}

	i.messages.mu.Lock()
	defer i.messages.mu.Unlock()
	i.reports.mu.Lock()
	defer i.reports.mu.Unlock()

	err = dbx.WithTx(ctx, i.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := i.messages.appendTx(ctx, tx, msg); err != nil {
			return fmt.Errorf("error storing message: %w", err)
		}
		if err := i.reports.captureTx(ctx, tx, msg.ID, clientIP, userAgent); err != nil {
			return &common.IntegrityError{MessageID: msg.ID, Err: err}
		}
		return nil
	})
	if err != nil {
		if common.IsFatal(err) {
			i.logger.Error(ctx, "anonymous message rejected without audit trail",
				"recipient_id", owner.ID, "error", err)
		}
		return nil, err
	}

	i.logger.Info(ctx, "anonymous message stored", "message_id", msg.ID, "recipient_id", owner.ID)
	return msg, nil
}

// SubmitAuthenticated delivers content to recipientUserName. A nil sender
// marks the message anonymous; no sender metadata is captured on this path.
func (i *Inbox) SubmitAuthenticated(ctx context.Context, sender *models.User, recipientUserName, content string) (*models.Message, error) {
	recipient, err := i.identities.GetByUsername(ctx, recipientUserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRecipientNotFound
		}
		return nil, err
	}

	msg, err := i.messages.Append(ctx, recipient.ID, content, sender == nil)
	if err != nil {
		return nil, err
	}

	i.logger.Info(ctx, "message stored", "message_id", msg.ID, "recipient_id", recipient.ID, "anonymous", msg.IsAnonymous)
	return msg, nil
}

// ListInbox returns ownerID's messages, newest first. Only the owner may list.
func (i *Inbox) ListInbox(ctx context.Context, caller *models.User, ownerID int64) ([]models.Message, error) {
	if caller == nil || caller.ID != ownerID {
		return nil, common.ErrForbidden
	}
	return i.messages.ListForRecipient(ctx, ownerID)
}

// ReportMessage files an abuse report for a message in reporter's inbox.
// Repeated reports of the same message are all kept.
func (i *Inbox) ReportMessage(ctx context.Context, reporter *models.User, messageID int64) (*models.Report, error) {
	if reporter == nil {
		return nil, common.ErrForbidden
	}

	msg, err := i.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.RecipientID != reporter.ID {
		return nil, common.ErrForbidden
	}

	meta, err := i.reports.GetMetadataForMessage(ctx, messageID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		meta = nil
	}

	report, err := i.reports.FileReport(ctx, msg.ID, reporter.ID, msg.Content, meta)
	if err != nil {
		return nil, err
	}

	i.logger.Info(ctx, "message reported", "report_id", report.ID, "message_id", msg.ID, "reporter_id", reporter.ID)

	for _, l := range i.listeners {
		if err := l.ReportFiled(ctx, report); err != nil {
			i.logger.Warn(ctx, "report listener failed",
				"listener", fmt.Sprintf("%T", l), "report_id", report.ID, "error", err)
		}
	}

	return report, nil
}

// RegenerateLink replaces owner's active link.
func (i *Inbox) RegenerateLink(ctx context.Context, owner *models.User) (*models.Link, error) {
	link, err := i.links.IssueLink(ctx, owner)
	if err != nil {
		return nil, err
	}
	i.logger.Info(ctx, "link regenerated", "user_id", owner.ID)
	return link, nil
}

// ResolveLink returns the username behind an active link token.
func (i *Inbox) ResolveLink(ctx context.Context, token string) (string, error) {
	owner, err := i.links.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	return owner.UserName, nil
}
