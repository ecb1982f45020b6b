package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer string // Required: issuer claim for admin access tokens

	SigningKeyFile string // Optional: path to Ed25519 PEM signing key (generated if absent)
	SigningKeyID   string // Optional: key id stamped into token headers (default: directory-1)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./directory.db)
	PepperFile     string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	WebhookSecret    string        // Required in prod: shared secret for billing webhook signatures
	WebhookTolerance time.Duration // Optional: max webhook timestamp skew (default: 5m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Invitation sweep interval (default: 1h)
}

func LoadConfig() Config {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Issuer:               os.Getenv("DIRECTORY_ISSUER"),
		SigningKeyFile:       os.Getenv("DIRECTORY_SIGNING_KEY_FILE"),
		SigningKeyID:         getEnvOrDefault("DIRECTORY_SIGNING_KEY_ID", "directory-1"),
		DatabaseFile:         getEnvOrDefault("DIRECTORY_DATABASE_FILE", "directory.db"),
		PepperFile:           getEnvOrDefault("DIRECTORY_PEPPER_FILE", "pepper"),
		WebhookSecret:        os.Getenv("BILLING_WEBHOOK_SECRET"),
		WebhookTolerance:     getEnvDurationOrDefault("BILLING_WEBHOOK_TOLERANCE", 5*time.Minute),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "campusreach-directory"
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

	// Bare integers are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
