package app

import (
	"os"
	"strconv"
	"time"

	"github.com/caliperhq/labrecords/pkg/jwtx"
)

type Config struct {
	Issuer   string        // Required: issuer claim for tokens
	TokenTTL time.Duration // Optional: bearer token lifetime (default: 12h)

	SigningKeyFile string // Optional: path to a PKCS8 Ed25519 PEM; ephemeral key when empty
	DatabaseFile   string // Optional: path to SQLite database file (default: ./records.db)

	SeedAdminUser string // Optional: username for the initial admin (seeded only when DB is empty)
	SeedAdminPass string // Optional: password for the initial admin

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:              os.Getenv("RECORDS_ISSUER"),
		TokenTTL:            getEnvDurationOrDefault("RECORDS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		SigningKeyFile:      os.Getenv("RECORDS_SIGNING_KEY_FILE"), // Optional
		DatabaseFile:        getEnvOrDefault("RECORDS_DATABASE_FILE", "records.db"),
		SeedAdminUser:       os.Getenv("RECORDS_SEED_ADMIN_USER"),
		SeedAdminPass:       os.Getenv("RECORDS_SEED_ADMIN_PASS"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "labrecords"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
