// Package migrations embeds the schema of every supported dialect and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql mysql/*.sql postgres/*.sql
var FS embed.FS

// goose keeps its base FS, dialect and logger in package state.
var mu sync.Mutex

// gooseUpContext is a seam for tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies every pending migration of the given dialect directory.
// dialect is the goose dialect name; dir is one of sqlite, mysql, postgres.
func Up(ctx context.Context, db *sql.DB, dialect, dir string, logger goose.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(FS)
	if logger != nil {
		goose.SetLogger(logger)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
