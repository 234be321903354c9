package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/logging"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testEnv is a fully wired set of stores on a temporary SQLite database.
type testEnv struct {
	db         *sql.DB
	rm         repomanager.RepositoryManager
	links      *LinkRegistry
	identities *IdentityStore
	messages   *MessageStore
	reports    *ReportStore
	inbox      *Inbox
}

type envOption struct {
	tokens    io.Reader
	logger    logging.Logger
	listeners []ReportListener
}

func newTestEnv(t *testing.T, opt envOption) *testEnv {
	t.Helper()

	db, rm, err := repomanager.Open(repomanager.DriverSQLite, filepath.Join(t.TempDir(), "inbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, rm.RunMigrations(context.Background(), db))

	if opt.tokens == nil {
		opt.tokens = rand.Reader
	}
	if opt.logger == nil {
		opt.logger = logging.Nop()
	}

	env := &testEnv{db: db, rm: rm}
	env.links = NewLinkRegistry(db, rm, WithTokenSource(opt.tokens), WithLinkLogger(opt.logger))
	env.identities = NewIdentityStore(db, rm, env.links, bcrypt.MinCost)
	env.messages = NewMessageStore(db, rm)
	env.reports = NewReportStore(db, rm)
	env.inbox = NewInbox(db, env.identities, env.links, env.messages, env.reports, opt.logger, opt.listeners...)
	return env
}

func (e *testEnv) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.identities.CreateLocalUser(context.Background(), name, name+"-password")
	require.NoError(t, err)
	return u
}

// tokenBytes encodes tokens as the raw bytes that make randomToken produce them.
func tokenBytes(tokens ...string) []byte {
	var b []byte
	for _, tok := range tokens {
		for _, c := range tok {
			b = append(b, byte(strings.IndexRune(common.LinkAlphabet, c)))
		}
	}
	return b
}

// tokenSource yields the given tokens first and random bytes afterwards.
func tokenSource(tokens ...string) io.Reader {
	return io.MultiReader(bytes.NewReader(tokenBytes(tokens...)), rand.Reader)
}
