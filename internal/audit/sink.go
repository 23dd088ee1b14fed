// Copyright (c) 2026 Kaka HQ. All rights reserved.

package audit

import (
	"context"
	"log/slog"
	"sync"
)

// # Slog Sink

// SlogSink emits audit entries as structured log lines. It is the default
// sink in development where no durable trail is needed.
type SlogSink struct {
	log *slog.Logger
}

// NewSlogSink creates a sink writing to the given structured logger.
func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log}
}

// Append implements [Sink].
func (sink *SlogSink) Append(ctx context.Context, entry Entry) error {
	level := slog.LevelInfo
	if entry.Severity == SeverityAlert {
		level = slog.LevelWarn
	}

	userID := ""
	if entry.UserID != nil {
		userID = *entry.UserID
	}

	sink.log.Log(ctx, level, "audit_event",
		slog.String("audit_id", entry.ID),
		slog.String("action", entry.Action),
		slog.String("user_id", userID),
		slog.String("entity_type", entry.EntityType),
		slog.String("entity_id", entry.EntityID),
		slog.String("ip", entry.IPAddress),
		slog.String("severity", string(entry.Severity)),
		slog.Time("at", entry.Timestamp),
	)
	return nil
}

// # Memory Sink

// MemorySink keeps appended entries in memory. It exists for tests that
// assert on the exact sequence of recorded events.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements [Sink].
func (sink *MemorySink) Append(ctx context.Context, entry Entry) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.entries = append(sink.entries, entry)
	return nil
}

// Entries returns a copy of everything appended so far.
func (sink *MemorySink) Entries() []Entry {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	out := make([]Entry, len(sink.entries))
	copy(out, sink.entries)
	return out
}

// ByAction returns the recorded entries matching the given action.
func (sink *MemorySink) ByAction(action string) []Entry {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	var out []Entry
	for _, entry := range sink.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}
