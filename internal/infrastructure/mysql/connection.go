package mysql

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"shiptrack/internal/config"
)

// DSN builds a driver DSN from a mysql://[user@]host[:port]/name URL and
// the backend key (password).
func DSN(cfg config.DatabaseConfig) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parsing database url: %w", err)
	}
	if u.Scheme != "mysql" {
		return "", fmt.Errorf("database url scheme must be mysql, got %q", u.Scheme)
	}

	host := u.Host
	if u.Port() == "" {
		host += ":3306"
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = host
	mc.DBName = strings.TrimPrefix(u.Path, "/")
	mc.User = u.User.Username()
	if mc.User == "" {
		mc.User = "shiptrack"
	}
	mc.Passwd = cfg.Key
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Timeout = 5 * time.Second

	return mc.FormatDSN(), nil
}

func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// A placeholder instance never answers; leave the pool lazy so the
	// process keeps running and individual calls fail instead.
	if cfg.Placeholder {
		return db, nil
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
