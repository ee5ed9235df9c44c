package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventStreamRepository defines the consumer-group operations over the
// append-only event log. This abstracts away the specific backend
// (Redis Streams in production, mocks in tests).
type EventStreamRepository interface {
	// EnsureGroup idempotently creates the consumer group at the stream's
	// origin, creating the stream itself if absent. An already-existing
	// group is success.
	EnsureGroup(ctx context.Context, stream, group string) error

	// ReadBatch blocks for up to block waiting for entries addressed to
	// this consumer. A timeout with no data returns (nil, nil).
	ReadBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]StreamEntry, error)

	// Acknowledge marks a single entry as processed for the group.
	Acknowledge(ctx context.Context, stream, group, entryID string) error

	// PendingEntries lists entries delivered but unacknowledged for longer
	// than minIdle.
	PendingEntries(ctx context.Context, stream, group string, minIdle time.Duration, count int64) ([]PendingEntry, error)

	// ClaimEntries transfers ownership of pending entries to consumer and
	// returns them for reprocessing.
	ClaimEntries(ctx context.Context, stream, group, consumer string, minIdle time.Duration, entryIDs []string) ([]StreamEntry, error)
}

// NotificationRepository persists notification records.
type NotificationRepository interface {
	Store(ctx context.Context, n *Notification) error
	MarkDelivered(ctx context.Context, id uuid.UUID) error
}

// UserDirectory resolves user identifiers and role cohorts to delivery
// targets. Resolution is re-queried per notification, never cached here.
type UserDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]User, error)
	FindByRoles(ctx context.Context, roles []string) ([]User, error)
}

// Broadcaster is the real-time transport: fire-and-forget emit of a named
// message to every subscriber of a room. Room IDs are user identifiers or
// role names.
type Broadcaster interface {
	EmitToRoom(room, event string, payload interface{}) error
}

// Mailer sends one email per call; failures are independent per address.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// StreamAdminRepository exposes read-mostly introspection over streams and
// their consumer groups for the ops surface.
type StreamAdminRepository interface {
	GroupInfo(ctx context.Context, stream string) ([]ConsumerGroupInfo, error)
	ConsumerInfo(ctx context.Context, stream, group string) ([]ConsumerInfo, error)
	PendingSummary(ctx context.Context, stream, group string) (*PendingSummary, error)
	PendingEntries(ctx context.Context, stream, group string, minIdle time.Duration, count int64) ([]PendingEntry, error)
	TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error)
}
