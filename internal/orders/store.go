// Copyright (c) 2026 Kaka HQ. All rights reserved.

package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaka-hq/dealerdesk/internal/platform/dberr"
	"github.com/kaka-hq/dealerdesk/pkg/pagination"
)

// Store provides access to the order book.
type Store interface {
	FindByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filter Filter, params pagination.Params) ([]Order, int, error)
	Create(ctx context.Context, order *Order) error
}

// Filter narrows order listings.
type Filter struct {
	// Status restricts results to one lifecycle state when non-empty.
	Status Status
}

// # Postgres Store

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const orderColumns = `id, reference, dealername, status, totalcents, currency, placedby, placedat, updatedat`

func (store *PostgresStore) FindByID(ctx context.Context, id string) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders.dealer_order WHERE id = $1`, orderColumns)

	var order Order
	err := store.pool.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.Reference, &order.DealerName, &order.Status,
		&order.TotalCents, &order.Currency, &order.PlacedBy,
		&order.PlacedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Order", "find order")
	}
	return &order, nil
}

func (store *PostgresStore) List(ctx context.Context, filter Filter, params pagination.Params) ([]Order, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Status != "" {
		where = "WHERE status = $1"
		args = append(args, filter.Status)
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM orders.dealer_order %s`, where)
	var total int
	if err := store.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s FROM orders.dealer_order %s
		ORDER BY placedat DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, params.Limit, params.Offset())

	rows, err := store.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var results []Order
	for rows.Next() {
		var order Order
		err := rows.Scan(
			&order.ID, &order.Reference, &order.DealerName, &order.Status,
			&order.TotalCents, &order.Currency, &order.PlacedBy,
			&order.PlacedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		results = append(results, order)
	}

	return results, total, rows.Err()
}

func (store *PostgresStore) Create(ctx context.Context, order *Order) error {
	query := `
		INSERT INTO orders.dealer_order
			(id, reference, dealername, status, totalcents, currency, placedby, placedat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := store.pool.Exec(ctx, query,
		order.ID, order.Reference, order.DealerName, order.Status,
		order.TotalCents, order.Currency, order.PlacedBy,
		order.PlacedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}
