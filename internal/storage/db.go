package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"shiptrack/internal/config"
	"shiptrack/internal/infrastructure/logger"
	"shiptrack/internal/infrastructure/mysql"
	"shiptrack/internal/infrastructure/postgres"
	"shiptrack/internal/infrastructure/sqlite"
	"shiptrack/internal/migrations"
)

// DB is the storage client owned by the process (or by a test). It is
// constructed by Open and released by Close; nothing else holds it globally.
type DB struct {
	SQL         *sql.DB
	Dialect     Dialect
	Placeholder bool
}

// Open connects to the configured backend and applies pending migrations.
// A placeholder configuration yields a lazy handle whose calls fail.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var sqlDB *sql.DB
	switch dialect {
	case SQLite:
		sqlDB, err = sqlite.NewConnection(cfg)
	case MySQL:
		sqlDB, err = mysql.NewConnection(cfg)
	case Postgres:
		sqlDB, err = postgres.NewConnection(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", dialect, err)
	}

	db := &DB{SQL: sqlDB, Dialect: dialect, Placeholder: cfg.Placeholder}

	if cfg.Placeholder {
		log.Warn("skipping migrations for placeholder backend", zap.String("driver", string(dialect)))
		return db, nil
	}

	if err := db.Migrate(ctx, log); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// Wrap builds a DB around an existing connection, for tests and tools that
// manage the connection themselves.
func Wrap(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{SQL: sqlDB, Dialect: dialect}
}

func (db *DB) Migrate(ctx context.Context, log *zap.Logger) error {
	return migrations.Up(ctx, db.SQL, db.Dialect.GooseDialect(), string(db.Dialect), logger.NewPrintf(log, "migrations"))
}

func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}
