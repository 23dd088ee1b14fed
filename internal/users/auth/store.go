// Copyright (c) 2026 Kaka HQ. All rights reserved.

package auth

import (
	"context"
	"time"
)

// # Store Contracts

// UserRepository provides access to operator accounts.
//
// Lookups return apperr.NotFound when no matching row exists; any other
// failure is an infrastructure error the caller maps to 503.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// RefreshTokenRepository tracks the bounded set of active refresh token IDs
// per user. Only IDs are stored, never the signed tokens themselves.
type RefreshTokenRepository interface {
	// ActiveIDs returns every active token ID for the user, newest first.
	ActiveIDs(ctx context.Context, userID string) ([]string, error)

	// Add registers a freshly issued token ID, evicting the oldest entries
	// beyond MaxActiveRefreshTokens.
	Add(ctx context.Context, userID, tokenID string, expiresAt time.Time) error

	// Remove consumes a token ID. It reports whether the ID was present:
	// under concurrent rotation of the same token exactly one caller
	// observes true, every other caller observes false.
	Remove(ctx context.Context, userID, tokenID string) (bool, error)

	// RemoveAll clears every active token ID for the user.
	RemoveAll(ctx context.Context, userID string) error
}

// RevocationRepository is the server-side deny list consulted on every
// refresh. Entries carry a TTL matching the remaining token lifetime, so
// the list stays bounded without a reaper.
type RevocationRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
