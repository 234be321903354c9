// Package config handles configuration for the inbox server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the inbox server.
//
// Fields:
//   - HTTPAddr / GRPCHealthAddr: bind addresses of the JSON API and the gRPC health endpoint.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (file path DSN) or "postgres" (pgx DSN).
//   - SecretKey / SessionTTL: HS256 session signing key and session lifetime.
//   - BaseURL: public origin used to build share links and the OAuth redirect URL.
//   - Google*: OAuth client of the external identity provider. Empty disables Google login.
//   - S3*: report archive bucket. Empty bucket disables archiving.
//   - Mailgun* / AbuseEmail: abuse desk notifications. Empty API key disables them.
type Config struct {
	HTTPAddr       string
	GRPCHealthAddr string

	DatabaseDriver string
	DatabaseDSN    string

	SecretKey     string
	SessionTTL    time.Duration
	BcryptCost    int
	CookieName    string
	SecureCookies bool
	BaseURL       string

	LogLevel  string
	LogFormat string

	GoogleClientID     string
	GoogleClientSecret string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	MailgunDomain string
	MailgunAPIKey string
	MailgunFrom   string
	AbuseEmail    string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCHealthAddr = ":50051"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "anoninbox.db"
	c.SecretKey = "secretKey"
	c.SessionTTL = 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.CookieName = common.SessionCookieName
	c.SecureCookies = false
	c.BaseURL = "http://localhost:8080"
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.S3Region = "us-east-1"
}

// GoogleEnabled reports whether the Google login flow is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// ArchiveEnabled reports whether filed reports are copied to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// NotifyEnabled reports whether the abuse desk is mailed about new reports.
func (c *Config) NotifyEnabled() bool {
	return c.MailgunAPIKey != "" && c.MailgunDomain != "" && c.AbuseEmail != ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
