package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiptrack/internal/config"
)

func TestNewConnection_AppliesPragmas(t *testing.T) {
	db, err := NewConnection(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "orders.db")})
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestDSN(t *testing.T) {
	dsn := DSN("/tmp/orders.db")

	assert.Contains(t, dsn, "file:/tmp/orders.db?")
	assert.Contains(t, dsn, "_time_format=sqlite")
	assert.Contains(t, dsn, "_pragma=foreign_keys%281%29")
}
