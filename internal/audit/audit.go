// Copyright (c) 2026 Kaka HQ. All rights reserved.

/*
Package audit records security-relevant events in an append-only trail.

Every login success, login failure, token refresh, reuse detection, and
logout produces exactly one [Entry]. The trail is the only place where
detailed failure causes live; user-visible errors stay generic.

# Architecture

  - Entry: The immutable audit record.
  - Sink: A narrow append-only storage contract (Postgres, slog, memory).
  - Logger: The façade used by services. It never fails the request path:
    sink errors are reported to an operational log channel and swallowed.

Sinks are swapped via constructor injection, which keeps tests free of any
filesystem or scheduler mocking.
*/
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/kaka-hq/dealerdesk/pkg/uuid"
)

// # Event Vocabulary

// Security-relevant actions recorded by the authentication core.
const (
	ActionLogin         = "login"
	ActionLoginFailed   = "login-failed"
	ActionRefresh       = "refresh"
	ActionReuseDetected = "refresh-token-reuse-detected"
	ActionLogout        = "logout"
)

// Severity classifies how urgently an entry should be reviewed.
type Severity string

const (
	// SeverityInfo marks routine lifecycle events.
	SeverityInfo Severity = "info"

	// SeverityAlert marks compromise signals (e.g. refresh-token reuse).
	SeverityAlert Severity = "alert"
)

// # Audit Record

// Entry is one immutable audit record.
//
// UserID is a pointer so that events without an attributable account (failed
// logins in particular) are stored with an explicit null rather than an empty
// string that could be mistaken for a real identifier.
type Entry struct {
	ID         string            `json:"id"`
	UserID     *string           `json:"user_id"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	Severity   Severity          `json:"severity"`
	Timestamp  time.Time         `json:"timestamp"`
	Details    map[string]string `json:"details,omitempty"`

	// Before and After hold an optional state diff for mutation events.
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// Sink is the append-only storage contract.
//
// Implementations must tolerate concurrent Append calls.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// # Logger

// operationalReportEvery caps how often sink failures are logged, so a dead
// sink cannot flood the operational channel during an outage.
const operationalReportEvery = time.Second

// Logger is the audit façade handed to services.
type Logger struct {
	sink     Sink
	log      *slog.Logger
	throttle *rate.Limiter
}

// NewLogger constructs a [Logger] writing to the given sink. Sink failures
// are reported to the provided slog logger, rate-limited to one report per
// second.
func NewLogger(sink Sink, log *slog.Logger) *Logger {
	return &Logger{
		sink:     sink,
		log:      log,
		throttle: rate.NewLimiter(rate.Every(operationalReportEvery), 1),
	}
}

// Record appends an entry to the trail.
//
// It fills in the ID, timestamp, and default severity when absent, and it
// never returns an error: a failing audit sink must not abort the security
// operation that triggered the event.
func (logger *Logger) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Severity == "" {
		entry.Severity = SeverityInfo
	}

	if err := logger.sink.Append(ctx, entry); err != nil {
		if logger.throttle.Allow() {
			logger.log.Error("audit_sink_append_failed",
				slog.String("action", entry.Action),
				slog.Any("error", err),
			)
		}
	}
}
