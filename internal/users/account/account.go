// Copyright (c) 2026 Kaka HQ. All rights reserved.

// Package account provides administrative views over operator accounts.
//
// It is read-oriented: account creation and credential changes live in the
// auth package; this package serves the admin dashboard's user directory.
package account

import (
	"time"

	"github.com/kaka-hq/dealerdesk/internal/platform/sec"
)

// Summary is the admin-facing projection of an operator account. It never
// exposes the password hash.
type Summary struct {
	ID         string       `json:"id"`
	Email      string       `json:"email"`
	FullName   string       `json:"full_name"`
	Role       sec.UserRole `json:"role"`
	IsDisabled bool         `json:"is_disabled"`
	CreatedAt  time.Time    `json:"created_at"`

	// ActiveSessions counts the account's live refresh tokens.
	ActiveSessions int `json:"active_sessions"`
}
