package postgres

import (
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"shiptrack/internal/config"
)

// ParseConfig builds a pgx connection config from the backend URL, with the
// backend key as password. The change listener reuses it for its dedicated
// connection.
func ParseConfig(cfg config.DatabaseConfig) (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.Key != "" {
		connConfig.Password = cfg.Key
	}
	return connConfig, nil
}

func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	connConfig, err := ParseConfig(cfg)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*connConfig)

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.Placeholder {
		return db, nil
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
