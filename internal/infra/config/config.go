package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"sunset_reminder_bot/internal/domain/location"
	"sunset_reminder_bot/internal/domain/reminder"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is wrapped by every configuration error. Any of them is
// fatal at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultSQLitePath      = "sunset_reminder.db"
	defaultMaxPollInterval = 60 * time.Second
	defaultCronSpecDigest  = "0 6 * * *"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken         string
	DatabaseDriver        string
	DatabaseURL           string
	AnnounceChannelID     int64
	RentReminderChannelID int64
	Location              location.Location
	LogLevel              string
	Environment           string
	MaxPollInterval       time.Duration
	RentThresholdDays     int
	CronSpecDailyDigest   string // Logs today's sunset and rent status
	MetricsAddr           string // Empty disables the /metrics listener
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, invalid("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(getenv("DATABASE_DRIVER")))
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = DriverSQLite
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	switch cfg.DatabaseDriver {
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = defaultSQLitePath
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, invalid("DATABASE_URL is not set")
		}
	default:
		return nil, invalid("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.AnnounceChannelID, err = requiredInt64(getenv, "ANNOUNCE_CHANNEL_ID"); err != nil {
		return nil, err
	}
	if cfg.RentReminderChannelID, err = requiredInt64(getenv, "RENT_REMINDER_CHANNEL_ID"); err != nil {
		return nil, err
	}

	lat, err := requiredFloat(getenv, "LOCATION_LAT")
	if err != nil {
		return nil, err
	}
	lon, err := requiredFloat(getenv, "LOCATION_LON")
	if err != nil {
		return nil, err
	}
	cfg.Location, err = location.New(getenv("LOCATION_NAME"), getenv("LOCATION_REGION"), getenv("LOCATION_TIMEZONE"), lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.MaxPollInterval = defaultMaxPollInterval
	if raw := getenv("MAX_POLL_INTERVAL"); raw != "" {
		cfg.MaxPollInterval, err = time.ParseDuration(raw)
		if err != nil {
			return nil, invalid("invalid MAX_POLL_INTERVAL: %v", err)
		}
		if cfg.MaxPollInterval < time.Second {
			return nil, invalid("MAX_POLL_INTERVAL must be at least 1s, got %s", cfg.MaxPollInterval)
		}
	}

	cfg.RentThresholdDays = reminder.DefaultObligationThreshold
	if raw := getenv("RENT_THRESHOLD_DAYS"); raw != "" {
		cfg.RentThresholdDays, err = strconv.Atoi(raw)
		if err != nil || cfg.RentThresholdDays < 0 || cfg.RentThresholdDays > 30 {
			return nil, invalid("invalid RENT_THRESHOLD_DAYS %q", raw)
		}
	}

	cfg.CronSpecDailyDigest = getenv("CRON_SPEC_DAILY_DIGEST")
	if cfg.CronSpecDailyDigest == "" {
		cfg.CronSpecDailyDigest = defaultCronSpecDigest // Default: 06:00 daily
	}

	cfg.MetricsAddr = strings.TrimSpace(getenv("METRICS_ADDR"))

	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func requiredInt64(getenv func(string) string, key string) (int64, error) {
	raw := getenv(key)
	if raw == "" {
		return 0, invalid("%s is not set", key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalid("invalid %s: %v", key, err)
	}
	return v, nil
}

func requiredFloat(getenv func(string) string, key string) (float64, error) {
	raw := getenv(key)
	if raw == "" {
		return 0, invalid("%s is not set", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid("invalid %s: %v", key, err)
	}
	return v, nil
}
