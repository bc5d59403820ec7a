package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "shiptrack.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.False(t, cfg.Database.Hosted())
	assert.False(t, cfg.Database.Placeholder)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 250*time.Millisecond, cfg.Notify.CoalesceWindow)
	assert.Equal(t, 5, cfg.Notify.MaxReconnectAttempts)
	assert.Empty(t, cfg.Diagnostics)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_URL", "postgres://db.example.com:5432/shiptrack")
	t.Setenv("DB_KEY", "pw")
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("NOTIFY_COALESCE_WINDOW", "1s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Database.Hosted())
	assert.False(t, cfg.Database.Placeholder)
	assert.Equal(t, "postgres://db.example.com:5432/shiptrack", cfg.Database.URL)
	assert.Equal(t, time.Second, cfg.Notify.CoalesceWindow)
}

func TestLoad_MissingHostedCoordinatesDegradeToPlaceholder(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_URL", "")
	t.Setenv("DB_KEY", "")
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Database.Placeholder)
	assert.Equal(t, PlaceholderURL, cfg.Database.URL)
	require.Len(t, cfg.Diagnostics, 1)
	assert.Contains(t, cfg.Diagnostics[0], "DB_URL and DB_KEY")
}

func TestLoad_MissingKeyOnlyForMySQL(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_URL", "mysql://db.example.com:3306/shiptrack")
	t.Setenv("DB_KEY", "")
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Database.Placeholder)
	assert.Contains(t, cfg.Database.URL, "placeholder.invalid")
	assert.Contains(t, cfg.Diagnostics[0], "missing DB_KEY for mysql backend")
}

func TestLoad_EphemeralSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Len(t, cfg.Auth.Secret, 64)
	require.Len(t, cfg.Diagnostics, 1)
	assert.Contains(t, cfg.Diagnostics[0], "AUTH_SECRET")
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("")
	assert.ErrorContains(t, err, `unsupported DB_DRIVER "oracle"`)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("AUTH_TOKEN_TTL", "forever")

	_, err := Load("")
	assert.ErrorContains(t, err, "AUTH_TOKEN_TTL")
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "SERVER_PORT: 7070\nDB_PATH: /var/lib/shiptrack/orders.db\nLOG_LEVEL: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/var/lib/shiptrack/orders.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}
