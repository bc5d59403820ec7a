package repository

import (
	"context"
	"fmt"

	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
	"shiptrack/internal/storage"
)

type SQLOrderRepository struct {
	db      storage.DBTX
	dialect storage.Dialect
}

func NewSQLOrderRepository(db storage.DBTX, dialect storage.Dialect) *SQLOrderRepository {
	return &SQLOrderRepository{db: db, dialect: dialect}
}

func (r *SQLOrderRepository) Insert(ctx context.Context, order domain.Order) (int64, error) {
	query := `
		INSERT INTO orders (company_name, pi_number, etd, eta, payment_terms, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := r.dialect.InsertReturningID(ctx, r.db, query,
		order.CompanyName,
		order.PINumber,
		storage.FormatDate(order.ETD),
		storage.FormatDate(order.ETA),
		string(order.PaymentTerms),
		order.UserID,
		order.CreatedAt.UTC(),
	)
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return 0, apperrors.NewStorageError("insert order", fmt.Errorf("owner %d does not exist: %w", order.UserID, err))
		}
		return 0, apperrors.NewStorageError("insert order", err)
	}

	return id, nil
}

// ListByOwner returns the owner's orders, newest first. Orders created in
// the same instant keep insertion order.
func (r *SQLOrderRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Order, error) {
	query := r.dialect.Rebind(`
		SELECT id, company_name, pi_number, etd, eta, payment_terms, user_id, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id ASC
	`)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, apperrors.NewStorageError("list orders", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var (
			order     domain.Order
			terms     string
			etd, eta  storage.Date
			createdAt storage.Time
		)
		if err := rows.Scan(
			&order.ID, &order.CompanyName, &order.PINumber, &etd, &eta,
			&terms, &order.UserID, &createdAt,
		); err != nil {
			return nil, apperrors.NewStorageError("scan order", err)
		}
		order.ETD = etd.Time
		order.ETA = eta.Time
		order.PaymentTerms = domain.PaymentTerms(terms)
		order.CreatedAt = createdAt.Time
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list orders", err)
	}

	return orders, nil
}
