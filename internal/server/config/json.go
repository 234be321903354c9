package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/anoninbox/internal/flagx"
	"github.com/dmitrijs2005/anoninbox/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "90s" strings and integer nanoseconds.
type JsonConfig struct {
	HTTPAddr       string `json:"http_addr"`
	GRPCHealthAddr string `json:"grpc_health_addr"`

	DatabaseDriver string `json:"database_driver"`
	DatabaseDSN    string `json:"database_dsn"`

	SecretKey     string         `json:"secret_key"`
	SessionTTL    timex.Duration `json:"session_ttl"`
	BcryptCost    int            `json:"bcrypt_cost"`
	CookieName    string         `json:"cookie_name"`
	SecureCookies *bool          `json:"secure_cookies"`
	BaseURL       string         `json:"base_url"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`

	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	MailgunDomain string `json:"mailgun_domain"`
	MailgunAPIKey string `json:"mailgun_api_key"`
	MailgunFrom   string `json:"mailgun_from"`
	AbuseEmail    string `json:"abuse_email"`
}

// parseJson overlays values from the file named by -c / -config onto config.
// Keys absent from the file keep their current value. An unreadable or
// malformed file panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigPath(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	setString(&config.CookieName, c.CookieName)
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.MailgunDomain, c.MailgunDomain)
	setString(&config.MailgunAPIKey, c.MailgunAPIKey)
	setString(&config.MailgunFrom, c.MailgunFrom)
	setString(&config.AbuseEmail, c.AbuseEmail)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
