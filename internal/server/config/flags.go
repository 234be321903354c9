package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/flagx"
)

var flagNames = []string{"a", "g", "driver", "d", "s", "t", "l", "base-url"}

// Positional returns the non-flag arguments of args, skipping every flag
// this package understands together with its value.
func Positional(args []string) []string {
	return flagx.Positional(args, append(flagNames, "c", "config")...)
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8080")
//	-g string       gRPC health bind address (e.g., ":50051")
//	-driver string  database driver, "sqlite" or "postgres"
//	-d string       database DSN
//	-s string       session signing key
//	-t int          session validity, minutes
//	-l string       log level (debug, info, warn, error)
//	-base-url string public origin of the service
//
// args are filtered with flagx.Subset first so that flags owned by other
// components (-c, -config) do not abort parsing.
func parseFlags(config *Config, args []string) {
	args = flagx.Subset(args, flagNames...)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve HTTP on")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port to serve gRPC health on")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (sqlite|postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.BaseURL, "base-url", config.BaseURL, "public base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
