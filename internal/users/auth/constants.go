// Copyright (c) 2026 Kaka HQ. All rights reserved.

package auth

// # Session Policy

const (
	// MaxActiveRefreshTokens bounds the number of concurrent sessions a
	// single user may hold. When the bound is exceeded the oldest token
	// is evicted, which logs that device out on its next refresh.
	MaxActiveRefreshTokens = 5
)

// # Validation Bounds

const (
	MaxEmailLength    = 320
	MaxPasswordLength = 72 // bcrypt truncates input beyond 72 bytes
)
