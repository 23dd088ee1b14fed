// Copyright (c) 2026 Kaka HQ. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaka-hq/dealerdesk/internal/platform/dberr"
)

// # Postgres User Repository

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, passwordhash, fullname, role, isdisabled, createdat, updatedat`

func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users.account WHERE id = $1`, userColumns)
	return repository.scanOne(repository.pool.QueryRow(ctx, query, id))
}

func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users.account WHERE lower(email) = lower($1)`, userColumns)
	return repository.scanOne(repository.pool.QueryRow(ctx, query, email))
}

func (repository *PostgresUserRepository) scanOne(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.Role, &user.IsDisabled, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "User", "scan user")
	}
	return &user, nil
}

// # Postgres Refresh Token Repository

type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

func (repository *PostgresRefreshTokenRepository) ActiveIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT tokenid FROM auth.refresh_token
		WHERE userid = $1
		ORDER BY createdat DESC, tokenid DESC`

	rows, err := repository.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (repository *PostgresRefreshTokenRepository) Add(ctx context.Context, userID, tokenID string, expiresAt time.Time) error {
	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin refresh token insert: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO auth.refresh_token (tokenid, userid, expiresat, createdat)
		VALUES ($1, $2, $3, now())`
	if _, err := tx.Exec(ctx, insert, tokenID, userID, expiresAt); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	// Evict the oldest entries beyond the per-user session bound.
	trim := `
		DELETE FROM auth.refresh_token
		WHERE userid = $1 AND tokenid NOT IN (
			SELECT tokenid FROM auth.refresh_token
			WHERE userid = $1
			ORDER BY createdat DESC, tokenid DESC
			LIMIT $2
		)`
	if _, err := tx.Exec(ctx, trim, userID, MaxActiveRefreshTokens); err != nil {
		return fmt.Errorf("trim refresh tokens: %w", err)
	}

	return tx.Commit(ctx)
}

// Remove deletes the token row. The single DELETE is the concurrency gate:
// two racing rotations of the same token both execute it, but only one
// observes an affected row.
func (repository *PostgresRefreshTokenRepository) Remove(ctx context.Context, userID, tokenID string) (bool, error) {
	query := `DELETE FROM auth.refresh_token WHERE userid = $1 AND tokenid = $2`

	tag, err := repository.pool.Exec(ctx, query, userID, tokenID)
	if err != nil {
		return false, fmt.Errorf("consume refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (repository *PostgresRefreshTokenRepository) RemoveAll(ctx context.Context, userID string) error {
	query := `DELETE FROM auth.refresh_token WHERE userid = $1`

	if _, err := repository.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("clear refresh tokens: %w", err)
	}
	return nil
}
