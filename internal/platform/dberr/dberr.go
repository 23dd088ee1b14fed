// Copyright (c) 2026 Kaka HQ. All rights reserved.

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kaka-hq/dealerdesk/internal/platform/apperr"
)

// Wrap inspects a database error and classifies it for the service layer.
// It hides internal database details from the client while preserving the
// failed action for log context.
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. Anything else stays an infrastructure error; the service layer
	// maps it to STORE_UNAVAILABLE.
	return fmt.Errorf("%s: %w", action, err)
}
