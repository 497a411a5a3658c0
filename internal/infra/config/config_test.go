package config

import (
	"errors"
	"testing"
	"time"

	"sunset_reminder_bot/internal/domain/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"TELEGRAM_TOKEN":           "token",
		"ANNOUNCE_CHANNEL_ID":      "-1001",
		"RENT_REMINDER_CHANNEL_ID": "-1002",
		"LOCATION_NAME":            "Portland",
		"LOCATION_REGION":          "USA",
		"LOCATION_TIMEZONE":        "America/Los_Angeles",
		"LOCATION_LAT":             "45.5152",
		"LOCATION_LON":             "-122.6784",
	}
}

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookup(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, defaultSQLitePath, cfg.DatabaseURL)
	assert.Equal(t, int64(-1001), cfg.AnnounceChannelID)
	assert.Equal(t, int64(-1002), cfg.RentReminderChannelID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 60*time.Second, cfg.MaxPollInterval)
	assert.Equal(t, 5, cfg.RentThresholdDays)
	assert.Equal(t, "0 6 * * *", cfg.CronSpecDailyDigest)
	assert.Equal(t, "America/Los_Angeles", cfg.Location.TZ().String())
	assert.Empty(t, cfg.MetricsAddr)
}

func TestFromEnv_Overrides(t *testing.T) {
	env := baseEnv()
	env["DATABASE_DRIVER"] = "Postgres"
	env["DATABASE_URL"] = "postgres://localhost/sunset"
	env["MAX_POLL_INTERVAL"] = "30s"
	env["RENT_THRESHOLD_DAYS"] = "3"
	env["LOG_LEVEL"] = "DEBUG"
	env["METRICS_ADDR"] = ":9090"

	cfg, err := FromEnv(lookup(env))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 30*time.Second, cfg.MaxPollInterval)
	assert.Equal(t, 3, cfg.RentThresholdDays)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]string)
		location bool
	}{
		{name: "missing token", mutate: func(e map[string]string) { delete(e, "TELEGRAM_TOKEN") }},
		{name: "missing channel", mutate: func(e map[string]string) { delete(e, "ANNOUNCE_CHANNEL_ID") }},
		{name: "bad channel", mutate: func(e map[string]string) { e["RENT_REMINDER_CHANNEL_ID"] = "rent" }},
		{name: "postgres without url", mutate: func(e map[string]string) { e["DATABASE_DRIVER"] = "postgres" }},
		{name: "unknown driver", mutate: func(e map[string]string) { e["DATABASE_DRIVER"] = "mongo" }},
		{name: "missing latitude", mutate: func(e map[string]string) { delete(e, "LOCATION_LAT") }},
		{name: "latitude out of range", mutate: func(e map[string]string) { e["LOCATION_LAT"] = "91" }, location: true},
		{name: "latitude NaN", mutate: func(e map[string]string) { e["LOCATION_LAT"] = "NaN" }, location: true},
		{name: "longitude infinite", mutate: func(e map[string]string) { e["LOCATION_LON"] = "+Inf" }, location: true},
		{name: "unknown timezone", mutate: func(e map[string]string) { e["LOCATION_TIMEZONE"] = "Mars/Olympus" }, location: true},
		{name: "missing name", mutate: func(e map[string]string) { e["LOCATION_NAME"] = " " }, location: true},
		{name: "poll too short", mutate: func(e map[string]string) { e["MAX_POLL_INTERVAL"] = "10ms" }},
		{name: "bad threshold", mutate: func(e map[string]string) { e["RENT_THRESHOLD_DAYS"] = "-1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			tt.mutate(env)

			_, err := FromEnv(lookup(env))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			if tt.location {
				assert.True(t, errors.Is(err, location.ErrInvalidLocation))
			}
		})
	}
}
