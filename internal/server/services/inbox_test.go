package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/logging"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliceScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOption{tokens: tokenSource("abc123XY_9")})

	alice := env.register(t, "alice")
	require.NotNil(t, alice.CurrentLink)
	assert.Equal(t, "abc123XY_9", *alice.CurrentLink)

	name, err := env.inbox.ResolveLink(ctx, "abc123XY_9")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	msg, err := env.inbox.SubmitAnonymous(ctx, "abc123XY_9", "hello alice", "1.2.3.4", "Mozilla/5.0")
	require.NoError(t, err)
	assert.True(t, msg.IsAnonymous)
	assert.Equal(t, alice.ID, msg.RecipientID)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())

	inbox, err := env.inbox.ListInbox(ctx, alice, alice.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	if diff := cmp.Diff(*msg, inbox[0]); diff != "" {
		t.Fatalf("inbox mismatch (-want +got):\n%s", diff)
	}

	report, err := env.inbox.ReportMessage(ctx, alice, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello alice", report.MessageContent)
	require.NotNil(t, report.SenderIP)
	require.NotNil(t, report.UserAgent)
	assert.Equal(t, "1.2.3.4", *report.SenderIP)
	assert.Equal(t, "Mozilla/5.0", *report.UserAgent)

	link, err := env.inbox.RegenerateLink(ctx, alice)
	require.NoError(t, err)
	assert.NotEqual(t, "abc123XY_9", link.Token)

	_, err = env.inbox.ResolveLink(ctx, "abc123XY_9")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = env.inbox.SubmitAnonymous(ctx, "abc123XY_9", "again", "1.2.3.4", "Mozilla/5.0")
	assert.ErrorIs(t, err, common.ErrInvalidLink)

	name, err = env.inbox.ResolveLink(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestSubmitAnonymous_PairsMessageWithMetadata(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOption{})
	bob := env.register(t, "bob")

	for i := 0; i < 3; i++ {
		msg, err := env.inbox.SubmitAnonymous(ctx, *bob.CurrentLink, "note", "10.0.0.9", "curl/8.0")
		require.NoError(t, err)
		assert.True(t, msg.IsAnonymous)

		meta, err := env.reports.GetMetadataForMessage(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, msg.ID, meta.MessageID)
		assert.Equal(t, "10.0.0.9", meta.IPAddress)
		assert.Equal(t, "curl/8.0", meta.UserAgent)
	}
}

func TestSubmitAnonymous_Rejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOption{})
	bob := env.register(t, "bob")

	tests := []struct {
		name    string
		token   string
		content string
		wantErr error
	}{
		{"unknown token", "ZZZZZZZZZZ", "hi", common.ErrInvalidLink},
		{"malformed token", "short", "hi", common.ErrInvalidLink},
		{"empty content", *bob.CurrentLink, "", common.ErrInvalidInput},
		{"whitespace content", *bob.CurrentLink, " \t\n ", common.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.inbox.SubmitAnonymous(ctx, tt.token, tt.content, "1.1.1.1", "ua")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	msgs, err := env.inbox.ListInbox(ctx, bob, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSubmitAnonymous_MetadataFailureIsFatalAndAtomic(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	env := newTestEnv(t, envOption{logger: logging.New(&logs, "debug", "json")})
	bob := env.register(t, "bob")

	_, err := env.db.Exec(`DROP TABLE submission_metadata`)
	require.NoError(t, err)

	_, err = env.inbox.SubmitAnonymous(ctx, *bob.CurrentLink, "hello", "1.2.3.4", "ua")
	require.Error(t, err)
	assert.True(t, common.IsFatal(err))
	assert.ErrorIs(t, err, common.ErrAuditTrail)

	var ie *common.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.NotZero(t, ie.MessageID)

	msgs, err := env.inbox.ListInbox(ctx, bob, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs, "message must not survive without its metadata")
	assert.Contains(t, logs.String(), "anonymous message rejected without audit trail")
}

func TestSubmitAuthenticated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOption{})
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	signed, err := env.inbox.SubmitAuthenticated(ctx, alice, "bob", "from alice")
	require.NoError(t, err)
	assert.False(t, signed.IsAnonymous)

	unsigned, err := env.inbox.SubmitAuthenticated(ctx, nil, "bob", "from nobody")
	require.NoError(t, err)
	assert.True(t, unsigned.IsAnonymous)

	for _, m := range []*models.Message{signed, unsigned} {
		_, err := env.reports.GetMetadataForMessage(ctx, m.ID)
		assert.ErrorIs(t, err, common.ErrorNotFound, "no metadata on the authenticated path")
	}

	report, err := env.inbox.ReportMessage(ctx, bob, signed.ID)
	require.NoError(t, err)
	assert.Nil(t, report.SenderIP)
	assert.Nil(t, report.UserAgent)

	_, err = env.inbox.SubmitAuthenticated(ctx, alice, "carol", "hi")
	assert.ErrorIs(t, err, common.ErrRecipientNotFound)

	_, err = env.inbox.SubmitAuthenticated(ctx, alice, "bob", "   ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestListInbox(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOption{})
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	fixed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	env.messages.now = func() time.Time { return fixed }

	var ids []int64
	for _, c := range []string{"one", "two", "three"} {
		m, err := env.inbox.SubmitAnonymous(ctx, *alice.CurrentLink, c, "1.1.1.1", "ua")
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	env.messages.now = func() time.Time { return fixed.Add(-time.Hour) }
	older, err := env.inbox.SubmitAuthenticated(ctx, bob, "alice", "older")
	require.NoError(t, err)
	_, err = env.inbox.SubmitAuthenticated(ctx, alice, "bob", "for bob")
	require.NoError(t, err)

	first, err := env.inbox.ListInbox(ctx, alice, alice.ID)
	require.NoError(t, err)

	var got []int64
	for _, m := range first {
		got = append(got, m.ID)
		assert.Equal(t, alice.ID, m.RecipientID)
	}
	assert.Equal(t, []int64{ids[2], ids[1], ids[0], older.ID}, got, "timestamp desc, id desc")

	second, err := env.inbox.ListInbox(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(first, second), "listing must not change state")

	_, err = env.inbox.ListInbox(ctx, bob, alice.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = env.inbox.ListInbox(ctx, nil, alice.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestReportMessage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOption{})
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	msg, err := env.inbox.SubmitAnonymous(ctx, *alice.CurrentLink, "abuse", "6.6.6.6", "evil/1.0")
	require.NoError(t, err)

	_, err = env.inbox.ReportMessage(ctx, bob, msg.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = env.inbox.ReportMessage(ctx, alice, msg.ID+100)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	first, err := env.inbox.ReportMessage(ctx, alice, msg.ID)
	require.NoError(t, err)
	second, err := env.inbox.ReportMessage(ctx, alice, msg.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "duplicate reports are kept")

	mine, err := env.reports.ListByReporter(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := env.reports.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, r := range all {
		assert.Equal(t, "abuse", r.MessageContent)
		require.NotNil(t, r.SenderIP)
		assert.Equal(t, "6.6.6.6", *r.SenderIP)
	}
}

type recordingListener struct {
	mu      sync.Mutex
	reports []*models.Report
	err     error
}

func (l *recordingListener) ReportFiled(_ context.Context, r *models.Report) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports = append(l.reports, r)
	return l.err
}

func TestReportMessage_ListenersAreBestEffort(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	failing := &recordingListener{err: errors.New("bucket unreachable")}
	ok := &recordingListener{}
	env := newTestEnv(t, envOption{
		logger:    logging.New(&logs, "debug", "json"),
		listeners: []ReportListener{failing, ok},
	})
	alice := env.register(t, "alice")

	msg, err := env.inbox.SubmitAnonymous(ctx, *alice.CurrentLink, "spam", "1.1.1.1", "ua")
	require.NoError(t, err)

	report, err := env.inbox.ReportMessage(ctx, alice, msg.ID)
	require.NoError(t, err)

	require.Len(t, failing.reports, 1)
	require.Len(t, ok.reports, 1)
	assert.Equal(t, report.ID, ok.reports[0].ID)
	assert.Contains(t, logs.String(), "report listener failed")
	assert.Contains(t, logs.String(), "bucket unreachable")
}

func TestConcurrentSubmissionsKeepEveryMessage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOption{})
	alice := env.register(t, "alice")

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.inbox.SubmitAnonymous(ctx, *alice.CurrentLink, "hi", "1.1.1.1", "ua"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := env.inbox.ListInbox(ctx, alice, alice.ID)
	require.NoError(t, err)
	require.Len(t, msgs, n)

	seen := make(map[int64]bool, n)
	for _, m := range msgs {
		assert.False(t, seen[m.ID], "duplicate id %d", m.ID)
		seen[m.ID] = true
	}
}
