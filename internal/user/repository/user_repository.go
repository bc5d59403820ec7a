package repository

import (
	"context"
	"database/sql"
	"errors"

	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
	"shiptrack/internal/storage"
)

type SQLUserRepository struct {
	db      storage.DBTX
	dialect storage.Dialect
}

func NewSQLUserRepository(db storage.DBTX, dialect storage.Dialect) *SQLUserRepository {
	return &SQLUserRepository{db: db, dialect: dialect}
}

func (r *SQLUserRepository) Insert(ctx context.Context, user domain.User) (int64, error) {
	query := `INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)`

	id, err := r.dialect.InsertReturningID(ctx, r.db, query, user.Username, user.PasswordHash, user.CreatedAt.UTC())
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return 0, apperrors.NewDuplicateUsernameError(user.Username)
		}
		return 0, apperrors.NewStorageError("insert user", err)
	}

	return id, nil
}

// FindByUsername returns nil without error when no user matches.
func (r *SQLUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := r.dialect.Rebind(`
		SELECT id, username, password, created_at
		FROM users
		WHERE username = ?
	`)

	var (
		user      domain.User
		createdAt storage.Time
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("find user by username", err)
	}

	user.CreatedAt = createdAt.Time
	return &user, nil
}
