package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/desk-booking/internal/logging"
)

// DefaultEnvFile is read when present and no other file is named.
const DefaultEnvFile = ".env"

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort         int
	SQLitePath       string
	SessionSecret    string
	SessionTTL       time.Duration
	BulkMaxDates     int
	SeedFile         string
	SessionCacheSize int
	SessionCacheTTL  time.Duration
	LogLevel         slog.Level
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Load reads envFile, or DefaultEnvFile when envFile is empty and the file
// exists, and then parses the process environment. Variables already set in
// the environment win over the file.
func Load(envFile string) (Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	return FromEnvironment()
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// FromEnvironment parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Missing required values and invalid
// values are collected and reported together.
func FromEnvironment() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLitePath:       "deskbooking.db",
		SessionTTL:       24 * time.Hour,
		BulkMaxDates:     62,
		SessionCacheSize: 1024,
		SessionCacheTTL:  30 * time.Second,
		LogLevel:         slog.LevelInfo,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	positiveInt := func(key string, target *int) {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			return
		}
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, key)
			return
		}
		*target = parsed
	}
	positiveDuration := func(key string, target *time.Duration) {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			return
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, key)
			return
		}
		*target = parsed
	}

	positiveInt("DESKBOOKING_HTTP_PORT", &cfg.HTTPPort)

	if path := strings.TrimSpace(os.Getenv("DESKBOOKING_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}

	if secret := strings.TrimSpace(os.Getenv("DESKBOOKING_SESSION_SECRET")); secret == "" {
		missing = append(missing, "DESKBOOKING_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	positiveDuration("DESKBOOKING_SESSION_TTL", &cfg.SessionTTL)
	positiveInt("DESKBOOKING_BULK_MAX_DATES", &cfg.BulkMaxDates)
	cfg.SeedFile = strings.TrimSpace(os.Getenv("DESKBOOKING_SEED_FILE"))
	positiveInt("DESKBOOKING_SESSION_CACHE_SIZE", &cfg.SessionCacheSize)
	positiveDuration("DESKBOOKING_SESSION_CACHE_TTL", &cfg.SessionCacheTTL)

	if levelValue := os.Getenv("DESKBOOKING_LOG_LEVEL"); strings.TrimSpace(levelValue) != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "DESKBOOKING_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
