package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"shiptrack/internal/config"
	"shiptrack/internal/storage"
)

// SetupTestDB opens a migrated SQLite database in a per-test directory.
// Every test gets an isolated instance; it is closed by t.Cleanup.
func SetupTestDB(t *testing.T) *storage.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "shiptrack_test.db"),
	}

	db, err := storage.Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// SetupHostedTestDB connects to a hosted test backend whose URL is read from
// envVar (TEST_MYSQL_URL or TEST_POSTGRES_URL). The test is skipped when the
// variable is unset or the server is unreachable.
func SetupHostedTestDB(t *testing.T, driver, envVar string) *storage.DB {
	t.Helper()

	url := os.Getenv(envVar)
	if url == "" {
		t.Skipf("%s not set", envVar)
	}

	cfg := config.DatabaseConfig{
		Driver:          driver,
		URL:             url,
		Key:             os.Getenv(envVar + "_KEY"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}

	db, err := storage.Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	CleanupTestDB(t, db)
	t.Cleanup(func() {
		CleanupTestDB(t, db)
		db.Close()
	})

	return db
}

// CleanupTestDB empties the tables, children first.
func CleanupTestDB(t *testing.T, db *storage.DB) {
	t.Helper()

	if db == nil {
		return
	}

	for _, table := range []string{"orders", "users"} {
		if _, err := db.SQL.Exec("DELETE FROM " + table); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// InsertUser creates a user row directly, bypassing hashing, and returns its id.
func InsertUser(t *testing.T, db *storage.DB, username string) int64 {
	t.Helper()

	id, err := db.Dialect.InsertReturningID(context.Background(), db.SQL,
		"INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)",
		username, "not-a-real-hash", time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("failed to insert user %s: %v", username, err)
	}
	return id
}
