// Copyright (c) 2026 Kaka HQ. All rights reserved.

// Command api runs the DealerDesk API server.
//
// Startup is strictly ordered: logger, configuration, Postgres, Redis,
// migrations, token issuer, then the HTTP server. Any failure before the
// listener opens aborts the process; after that, shutdown is graceful.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kaka-hq/dealerdesk/internal/api"
	"github.com/kaka-hq/dealerdesk/internal/audit"
	"github.com/kaka-hq/dealerdesk/internal/obs"
	"github.com/kaka-hq/dealerdesk/internal/orders"
	"github.com/kaka-hq/dealerdesk/internal/platform/config"
	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
	"github.com/kaka-hq/dealerdesk/internal/platform/migration"
	"github.com/kaka-hq/dealerdesk/internal/platform/postgres"
	"github.com/kaka-hq/dealerdesk/internal/platform/ratelimit"
	"github.com/kaka-hq/dealerdesk/internal/platform/redis"
	"github.com/kaka-hq/dealerdesk/internal/platform/sec"
	"github.com/kaka-hq/dealerdesk/internal/users/account"
	"github.com/kaka-hq/dealerdesk/internal/users/auth"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// # Logger

	logger := newLogger(slog.LevelInfo)
	slog.SetDefault(logger)

	// # Configuration

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Debug {
		logger = newLogger(slog.LevelDebug)
		slog.SetDefault(logger)
	}
	logger.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// # Backing Stores

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		return err
	}

	// # Security Core

	issuer, err := sec.NewTokenIssuer(sec.IssuerConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	metrics := obs.NewMetrics()

	authRateMax, authRateWindow := cfg.AuthRateLimit()
	apiRateMax, apiRateWindow := cfg.APIRateLimit()
	limiter := ratelimit.New(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassAuth: {Max: authRateMax, Window: authRateWindow},
		ratelimit.ClassAPI:  {Max: apiRateMax, Window: apiRateWindow},
	})
	limiter.Start(ctx)

	trail := audit.NewLogger(audit.NewPostgresSink(pool), logger)

	// # Domain Wiring

	authService := auth.NewService(
		auth.NewPostgresUserRepository(pool),
		auth.NewPostgresRefreshTokenRepository(pool),
		auth.NewRedisRevocationRepository(redisClient),
		issuer,
		trail,
		metrics,
		logger,
	)

	router := api.NewRouter(api.Dependencies{
		Config:         cfg,
		Logger:         logger,
		Verifier:       issuer,
		Limiter:        limiter,
		Metrics:        metrics,
		AuthHandler:    auth.NewHandler(authService, cfg.IsProduction()),
		AccountHandler: account.NewHandler(account.NewService(account.NewPostgresStore(pool))),
		OrdersHandler:  orders.NewHandler(orders.NewService(orders.NewPostgresStore(pool))),
		PostgresCheck:  postgresCheck(pool),
		RedisCheck:     redisCheck(redisClient),
	})

	// # HTTP Server

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadTimeout:       constants.DefaultReadTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		WriteTimeout:      constants.DefaultWriteTimeout,
		IdleTimeout:       constants.DefaultIdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server_listening", slog.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown_signal_received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful_shutdown_failed", slog.Any("error", err))
			return server.Close()
		}
	}

	logger.Info("server_stopped")
	return nil
}

// newLogger builds the process-wide structured logger. Output is JSON so the
// log shipper can parse it without a format sidecar.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
	)
}

func postgresCheck(pool *pgxpool.Pool) api.HealthCheck {
	return func(ctx context.Context) error {
		return postgres.Ping(ctx, pool)
	}
}

func redisCheck(client *goredis.Client) api.HealthCheck {
	return func(ctx context.Context) error {
		return redis.Ping(ctx, client)
	}
}
