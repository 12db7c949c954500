package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reread")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	require.Equal(t, time.UTC, cfg.Location)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, "0 2 * * *", cfg.PrepareCron)
	require.Equal(t, 3, cfg.PrepareLeadDays)
	require.Equal(t, 2*time.Second, cfg.SyncPollInterval)
	require.Equal(t, 10*time.Minute, cfg.SyncStaleAfter)
	require.Equal(t, 8, cfg.SyncMaxAttempts)
	require.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	require.False(t, cfg.SyncEnabled())
}

func TestLoadOverrides(t *testing.T) {
	setBase(t)
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NOTION_TOKEN", "tok")
	t.Setenv("SYNC_POLL_INTERVAL", "500ms")
	t.Setenv("PREPARE_LEAD_DAYS", "5")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", cfg.Location.String())
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.True(t, cfg.SyncEnabled())
	require.Equal(t, 500*time.Millisecond, cfg.SyncPollInterval)
	require.Equal(t, 5, cfg.PrepareLeadDays)
}

func TestLoadRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"PREPARE_LEAD_DAYS":  "three",
		"SYNC_MAX_ATTEMPTS":  "0",
		"SYNC_STALE_AFTER":   "soon",
		"SYNC_POLL_INTERVAL": "-1s",
		"TIMEZONE":           "Mars/Olympus",
		"LOG_LEVEL":          "loud",
		"JWT_TTL":            "forever",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			setBase(t)
			t.Setenv(key, val)
			_, err := Load()
			require.ErrorContains(t, err, key)
		})
	}
}

func TestLoadPanicsWithoutSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.Panics(t, func() { _, _ = Load() })
}
