// Copyright (c) 2026 Kaka HQ. All rights reserved.

// Command seed loads a development data set: one admin, two staff
// operators, and a handful of dealer orders.
//
// It is idempotent over user emails (ON CONFLICT DO NOTHING), so it is safe
// to run against a database that was seeded before.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaka-hq/dealerdesk/internal/orders"
	"github.com/kaka-hq/dealerdesk/internal/platform/config"
	"github.com/kaka-hq/dealerdesk/internal/platform/migration"
	"github.com/kaka-hq/dealerdesk/internal/platform/postgres"
	"github.com/kaka-hq/dealerdesk/internal/platform/sec"
	"github.com/kaka-hq/dealerdesk/pkg/uuid"
)

type seedUser struct {
	email    string
	password string
	fullName string
	role     sec.UserRole
}

var seedUsers = []seedUser{
	{email: "admin@kaka-hq.com", password: "admin123", fullName: "Dana Okafor", role: sec.RoleAdmin},
	{email: "staff1@kaka-hq.com", password: "staff123!", fullName: "Mikel Aronsen", role: sec.RoleStaff},
	{email: "staff2@kaka-hq.com", password: "staff123!", fullName: "Priya Nair", role: sec.RoleStaff},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config_load_failed", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("postgres_connect_failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		logger.Error("migration_failed", slog.Any("error", err))
		os.Exit(1)
	}

	adminID, err := seedAccounts(ctx, pool, logger)
	if err != nil {
		logger.Error("seed_accounts_failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := seedOrders(ctx, pool, adminID, logger); err != nil {
		logger.Error("seed_orders_failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("seed_complete")
}

func seedAccounts(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (string, error) {
	var adminID string

	for _, user := range seedUsers {
		hash, err := sec.HashPassword(user.password)
		if err != nil {
			return "", err
		}

		id := uuid.New()
		query := `
			INSERT INTO users.account (id, email, passwordhash, fullname, role, isdisabled, createdat, updatedat)
			VALUES ($1, $2, $3, $4, $5, false, now(), now())
			ON CONFLICT (email) DO NOTHING`
		if _, err := pool.Exec(ctx, query, id, user.email, hash, user.fullName, user.role); err != nil {
			return "", err
		}

		// The row may predate this run; read back the real ID.
		if err := pool.QueryRow(ctx, `SELECT id FROM users.account WHERE email = $1`, user.email).Scan(&id); err != nil {
			return "", err
		}
		if user.role == sec.RoleAdmin && adminID == "" {
			adminID = id
		}

		logger.Info("seeded_account", slog.String("email", user.email), slog.String("role", string(user.role)))
	}

	return adminID, nil
}

func seedOrders(ctx context.Context, pool *pgxpool.Pool, placedBy string, logger *slog.Logger) error {
	samples := []orders.Order{
		{Reference: "DD-2026-0001", DealerName: "Northline Motors", Status: orders.StatusDelivered, TotalCents: 2_450_000, Currency: "EUR"},
		{Reference: "DD-2026-0002", DealerName: "Harbor Auto Group", Status: orders.StatusShipped, TotalCents: 1_180_500, Currency: "EUR"},
		{Reference: "DD-2026-0003", DealerName: "Velden & Sons", Status: orders.StatusConfirmed, TotalCents: 642_000, Currency: "EUR"},
		{Reference: "DD-2026-0004", DealerName: "Northline Motors", Status: orders.StatusPending, TotalCents: 3_020_000, Currency: "EUR"},
		{Reference: "DD-2026-0005", DealerName: "Crestway Vehicles", Status: orders.StatusCancelled, TotalCents: 275_000, Currency: "EUR"},
	}

	for _, sample := range samples {
		query := `
			INSERT INTO orders.dealer_order
				(id, reference, dealername, status, totalcents, currency, placedby, placedat, updatedat)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (reference) DO NOTHING`
		_, err := pool.Exec(ctx, query,
			uuid.New(), sample.Reference, sample.DealerName, sample.Status,
			sample.TotalCents, sample.Currency, placedBy, time.Now().UTC(),
		)
		if err != nil {
			return err
		}
	}

	logger.Info("seeded_orders", slog.Int("count", len(samples)))
	return nil
}
