// Copyright (c) 2026 Kaka HQ. All rights reserved.

package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink appends audit entries to the system.audit_log table.
//
// The table is append-only: rows are never updated or deleted by the
// application, so the trail survives later changes to the referenced users.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a durable sink backed by the given pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Append implements [Sink].
func (sink *PostgresSink) Append(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO system.audit_log (
			id, userid, action, entitytype, entityid, ipaddress, severity, occurredat, details, beforestate, afterstate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	var details []byte
	if len(entry.Details) > 0 {
		encoded, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("audit_sink_encode_details_failed: %w", err)
		}
		details = encoded
	}

	_, err := sink.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.IPAddress,
		entry.Severity,
		entry.Timestamp,
		details,
		[]byte(entry.Before),
		[]byte(entry.After),
	)

	if err != nil {
		return fmt.Errorf("audit_sink_append_failed: %w", err)
	}

	return nil
}
