package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCHealthAddr)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "anoninbox.db", c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, bcrypt.DefaultCost, c.BcryptCost)
	assert.Equal(t, "inbox_session", c.CookieName)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)

	assert.False(t, c.GoogleEnabled())
	assert.False(t, c.ArchiveEnabled())
	assert.False(t, c.NotifyEnabled())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"http_addr":   ":7000",
		"session_ttl": "2h",
	})
	os.Args = []string{"testbin", "-c", path, "-a", ":9000"}

	c := LoadConfig()

	assert.Equal(t, ":9000", c.HTTPAddr)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
}

func TestEnabledSwitches(t *testing.T) {
	c := Config{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		S3Bucket:           "reports",
		MailgunDomain:      "mg.example.com",
		MailgunAPIKey:      "key",
		AbuseEmail:         "abuse@example.com",
	}

	assert.True(t, c.GoogleEnabled())
	assert.True(t, c.ArchiveEnabled())
	assert.True(t, c.NotifyEnabled())

	c.AbuseEmail = ""
	assert.False(t, c.NotifyEnabled())
}
