// Package notify mails the abuse desk whenever a message is reported.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

type sender interface {
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

// MailgunNotifier sends one plain-text email per filed report.
type MailgunNotifier struct {
	mg   sender
	from string
	to   string
}

// NewMailgunNotifier returns a notifier sending from `from` (defaulting to
// noreply@domain) to the abuse desk address `to`.
func NewMailgunNotifier(domain, apiKey, from, to string) *MailgunNotifier {
	if from == "" {
		from = "noreply@" + domain
	}
	return &MailgunNotifier{
		mg:   mailgun.NewMailgun(domain, apiKey),
		from: from,
		to:   to,
	}
}

func (n *MailgunNotifier) ReportFiled(ctx context.Context, report *models.Report) error {
	subject, body := renderReport(report)
	message := mailgun.NewMessage(n.from, subject, body, n.to)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, _, err := n.mg.Send(ctx, message); err != nil {
		if strings.Contains(err.Error(), "401") {
			return fmt.Errorf("unauthorized: check the Mailgun API key and domain: %w", err)
		}
		return fmt.Errorf("error sending report notification: %w", err)
	}

	return nil
}

func renderReport(r *models.Report) (string, string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Report #%d was filed at %s.\n\n", r.ID, r.ReportedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Message ID:  %d\n", r.MessageID)
	fmt.Fprintf(&b, "Reporter ID: %d\n", r.ReporterID)
	fmt.Fprintf(&b, "Sender IP:   %s\n", valueOr(r.SenderIP, "n/a (not sent through a link)"))
	fmt.Fprintf(&b, "User agent:  %s\n", valueOr(r.UserAgent, "n/a"))
	fmt.Fprintf(&b, "\nMessage content:\n%s\n", r.MessageContent)

	return fmt.Sprintf("Abuse report #%d for message %d", r.ID, r.MessageID), b.String()
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
