// Copyright (c) 2026 Kaka HQ. All rights reserved.

package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaka-hq/dealerdesk/pkg/pagination"
)

// Store lists operator accounts for the admin directory.
type Store interface {
	List(ctx context.Context, params pagination.Params) ([]Summary, int, error)
}

// # Postgres Store

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (store *PostgresStore) List(ctx context.Context, params pagination.Params) ([]Summary, int, error) {
	var total int
	if err := store.pool.QueryRow(ctx, `SELECT count(*) FROM users.account`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	query := `
		SELECT
			account.id, account.email, account.fullname, account.role,
			account.isdisabled, account.createdat,
			count(token.tokenid) AS activesessions
		FROM users.account AS account
		LEFT JOIN auth.refresh_token AS token ON token.userid = account.id
		GROUP BY account.id
		ORDER BY account.createdat DESC, account.id DESC
		LIMIT $1 OFFSET $2`

	rows, err := store.pool.Query(ctx, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var summary Summary
		err := rows.Scan(
			&summary.ID, &summary.Email, &summary.FullName, &summary.Role,
			&summary.IsDisabled, &summary.CreatedAt, &summary.ActiveSessions,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, total, rows.Err()
}
