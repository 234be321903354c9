package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"
)

const previewLength = 40

var ErrPasswordMismatch = errors.New("passwords do not match")

// Migrate brings the schema up to date.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.rm.RunMigrations(ctx, a.db); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "database is up to date")
	return nil
}

// UserAdd creates a local account. The username comes from args or a
// prompt; the password is always read from the terminal, twice.
func (a *App) UserAdd(ctx context.Context, args []string) error {
	var userName string
	if len(args) > 0 {
		userName = args[0]
	} else {
		var err error
		userName, err = GetSimpleText(a.reader, "Username", a.out)
		if err != nil {
			return err
		}
	}

	password, err := GetPassword(a.out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.out, "Repeat password: ")
	if err != nil {
		return err
	}
	if !bytes.Equal(password, confirm) {
		return ErrPasswordMismatch
	}

	user, err := a.identities.CreateLocalUser(ctx, userName, string(password))
	if err != nil {
		return fmt.Errorf("create user %q: %w", userName, err)
	}

	fmt.Fprintf(a.out, "created user %s (id %d)\n", user.UserName, user.ID)
	if user.CurrentLink != nil {
		fmt.Fprintf(a.out, "link: %s/l/%s\n", strings.TrimRight(a.config.BaseURL, "/"), *user.CurrentLink)
	}
	return nil
}

// Reports prints every abuse report, newest first.
func (a *App) Reports(ctx context.Context) error {
	reports, err := a.reports.ListAll(ctx)
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Fprintln(a.out, "no reports")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMESSAGE\tREPORTER\tREPORTED AT\tSENDER IP\tUSER AGENT\tCONTENT")
	for _, r := range reports {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.MessageID, r.ReporterID,
			r.ReportedAt.Format(time.RFC3339),
			valueOr(r.SenderIP, "-"), valueOr(r.UserAgent, "-"),
			preview(r.MessageContent))
	}
	return tw.Flush()
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// preview flattens content to one line and cuts it to previewLength runes.
func preview(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(s) <= previewLength {
		return s
	}
	r := []rune(s)
	return string(r[:previewLength-1]) + "…"
}
