package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_ENCODING", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dailywork", cfg.AppName)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, "postgres://dailywork:pw@localhost:5432/dailywork?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 30*time.Second, cfg.Journal.SyncInterval)
	assert.Equal(t, "Asia/Shanghai", cfg.Timezone)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "console", cfg.Logger.Encoding)
}

func TestLoadEnvironmentPicksLogEncoding(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_ENCODING", "")

	t.Setenv("APP_ENV", "Production")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.Logger.Encoding)

	t.Setenv("LOG_ENCODING", "console")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Logger.Encoding, "explicit encoding wins")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("JOURNAL_SYNC_INTERVAL", "15")
	t.Setenv("JOURNAL_BATCH_SIZE", "notanumber")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 15*time.Second, cfg.Journal.SyncInterval, "bare integers are seconds")
	assert.Equal(t, 50, cfg.Journal.BatchSize, "invalid values fall back")
	assert.False(t, cfg.Migrations.Enabled)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsSubSecondDrain(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JOURNAL_SYNC_INTERVAL", "500ms")

	_, err := Load()
	assert.Error(t, err)
}
