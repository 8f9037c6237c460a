package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "file", cfg.StoreBackend)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "HealthFirst Medical Center", cfg.ClinicName)
	assert.Equal(t, 15*time.Minute, cfg.ReminderPollInterval)
	assert.Equal(t, 7, cfg.ReminderWindowDays)
	assert.True(t, cfg.RunReminderSweep)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("REMINDER_POLL_INTERVAL", "1m")
	t.Setenv("REMINDER_WINDOW_DAYS", "3")
	t.Setenv("RUN_REMINDER_SWEEP", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, time.Minute, cfg.ReminderPollInterval)
	assert.Equal(t, 3, cfg.ReminderWindowDays)
	assert.False(t, cfg.RunReminderSweep)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORSAllowedOrigins)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REMINDER_WINDOW_DAYS", "soon")
	t.Setenv("REMINDER_POLL_INTERVAL", "whenever")
	t.Setenv("RUN_REMINDER_SWEEP", "yes please")

	cfg := Load()

	assert.Equal(t, 7, cfg.ReminderWindowDays)
	assert.Equal(t, 15*time.Minute, cfg.ReminderPollInterval)
	assert.True(t, cfg.RunReminderSweep)
}
