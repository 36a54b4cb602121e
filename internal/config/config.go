package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the backend services
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration (Asynq task queue)
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// Magic link Configuration
	MagicLink MagicLinkConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// MagicLinkConfig holds magic-link delivery and cleanup configuration
type MagicLinkConfig struct {
	// BaseURL is prepended to the callback path included in delivery emails,
	// e.g. https://app.reviewd.dev
	BaseURL string

	// PurgeSchedule is a cron expression for purging expired, unconsumed
	// magic links. Empty disables the purge job.
	PurgeSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "reviewd.sqlite"
	}

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	baseURL := os.Getenv("MAGIC_LINK_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	purgeSchedule := os.Getenv("MAGIC_LINK_PURGE_SCHEDULE")
	if purgeSchedule == "" {
		purgeSchedule = "17 * * * *" // hourly
	}

	return &Config{
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		MagicLink: MagicLinkConfig{
			BaseURL:       baseURL,
			PurgeSchedule: purgeSchedule,
		},
	}, nil
}
