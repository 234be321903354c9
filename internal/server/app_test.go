package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCHealthAddr = "127.0.0.1:0"
	c.DatabaseDSN = filepath.Join(t.TempDir(), "app.db")
	c.LogLevel = "error"
	return c
}

func TestReportListeners_Disabled(t *testing.T) {
	c := testConfig(t)

	listeners, err := reportListeners(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, listeners)
}

func TestReportListeners_Notifier(t *testing.T) {
	c := testConfig(t)
	c.MailgunDomain = "mg.example.com"
	c.MailgunAPIKey = "key"
	c.AbuseEmail = "abuse@example.com"

	listeners, err := reportListeners(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, listeners, 1)
}

func TestNewApp_BadDriver(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDriver = "oracle"

	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	c := testConfig(t)

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}
