// Copyright (c) 2026 Kaka HQ. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token issuer) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the DealerDesk API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) — revocation list
	RedisURL string `env:"REDIS_URL,required"`

	// Signing secrets for the two token families. They must differ; sharing
	// one secret would collapse access and refresh tokens into one family.
	AccessTokenSecret  string `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret string `env:"REFRESH_TOKEN_SECRET,required"`

	// Token lifetimes
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Rate limiting, per route class
	AuthRateLimitMax    int           `env:"AUTH_RATE_LIMIT_MAX"    envDefault:"5"`
	AuthRateLimitWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"15m"`
	APIRateLimitMax     int           `env:"API_RATE_LIMIT_MAX"     envDefault:"100"`
	APIRateLimitWindow  time.Duration `env:"API_RATE_LIMIT_WINDOW"  envDefault:"15m"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be distinct")
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra browser origins permitted beyond the
// built-in company domain, parsed from the comma-separated EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// AuthRateLimit returns the (max, window) policy for the auth route class,
// falling back to platform defaults for zero values.
func (c *Config) AuthRateLimit() (int, time.Duration) {
	max, window := c.AuthRateLimitMax, c.AuthRateLimitWindow
	if max <= 0 {
		max = constants.AuthRateLimitMax
	}
	if window <= 0 {
		window = constants.AuthRateLimitWindow
	}
	return max, window
}

// APIRateLimit returns the (max, window) policy for the general route class,
// falling back to platform defaults for zero values.
func (c *Config) APIRateLimit() (int, time.Duration) {
	max, window := c.APIRateLimitMax, c.APIRateLimitWindow
	if max <= 0 {
		max = constants.APIRateLimitMax
	}
	if window <= 0 {
		window = constants.APIRateLimitWindow
	}
	return max, window
}
