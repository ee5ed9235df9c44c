package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/staffstream/internal/domain"
)

// StreamRepository implements domain.EventStreamRepository and
// domain.StreamAdminRepository using Redis Streams.
type StreamRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStreamRepository creates a new Redis-backed StreamRepository.
func NewStreamRepository(client *redis.Client, logger *slog.Logger) *StreamRepository {
	return &StreamRepository{
		client: client,
		logger: logger.With("component", "redis_stream_repository"),
	}
}

// EnsureGroup creates the consumer group at the stream's origin, creating the
// stream itself if absent. An already-existing group is success.
func (r *StreamRepository) EnsureGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !isRedisBusyGroupError(err) {
		return fmt.Errorf("failed to create consumer group %s on stream %s: %w", group, stream, err)
	}
	return nil
}

// ReadBatch blocks for up to block waiting for new entries addressed to this
// consumer. A timeout with no data returns (nil, nil).
func (r *StreamRepository) ReadBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]domain.StreamEntry, error) {
	args := &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}

	streams, err := r.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP from stream %s: %w", stream, err)
	}

	if len(streams) == 0 {
		return nil, nil
	}

	var entries []domain.StreamEntry
	for _, s := range streams {
		for _, msg := range s.Messages {
			entries = append(entries, domain.StreamEntry{ID: msg.ID, Values: msg.Values})
		}
	}
	return entries, nil
}

// Acknowledge marks a single entry as processed for the group.
func (r *StreamRepository) Acknowledge(ctx context.Context, stream, group, entryID string) error {
	if err := r.client.XAck(ctx, stream, group, entryID).Err(); err != nil {
		return fmt.Errorf("failed to XACK entry %s in stream %s: %w", entryID, stream, err)
	}
	return nil
}

// PendingEntries lists entries delivered but unacknowledged for longer than
// minIdle, across all consumers of the group.
func (r *StreamRepository) PendingEntries(ctx context.Context, stream, group string, minIdle time.Duration, count int64) ([]domain.PendingEntry, error) {
	args := &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Idle:   minIdle,
		Start:  "-",
		End:    "+",
		Count:  count,
	}

	messages, err := r.client.XPendingExt(ctx, args).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending entries for stream %s, group %s: %w", stream, group, err)
	}

	result := make([]domain.PendingEntry, len(messages))
	for i, m := range messages {
		result[i] = domain.PendingEntry{
			ID:         m.ID,
			Consumer:   m.Consumer,
			IdleTime:   m.Idle,
			RetryCount: m.RetryCount,
		}
	}
	return result, nil
}

// ClaimEntries transfers ownership of pending entries to consumer and returns
// them for reprocessing. Entries that no longer exist are silently skipped by
// the server.
func (r *StreamRepository) ClaimEntries(ctx context.Context, stream, group, consumer string, minIdle time.Duration, entryIDs []string) ([]domain.StreamEntry, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}

	args := &redis.XClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: entryIDs,
	}

	claimed, err := r.client.XClaim(ctx, args).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to XCLAIM entries in stream %s: %w", stream, err)
	}

	entries := make([]domain.StreamEntry, 0, len(claimed))
	for _, msg := range claimed {
		entries = append(entries, domain.StreamEntry{ID: msg.ID, Values: msg.Values})
	}
	return entries, nil
}

// GroupInfo retrieves information about all consumer groups for a stream.
func (r *StreamRepository) GroupInfo(ctx context.Context, stream string) ([]domain.ConsumerGroupInfo, error) {
	groups, err := r.client.XInfoGroups(ctx, stream).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get group info for stream %s: %w", stream, err)
	}

	result := make([]domain.ConsumerGroupInfo, len(groups))
	for i, g := range groups {
		result[i] = domain.ConsumerGroupInfo{
			Name:            g.Name,
			Consumers:       g.Consumers,
			Pending:         g.Pending,
			LastDeliveredID: g.LastDeliveredID,
		}
	}
	return result, nil
}

// ConsumerInfo retrieves information about consumers in a specific group.
func (r *StreamRepository) ConsumerInfo(ctx context.Context, stream, group string) ([]domain.ConsumerInfo, error) {
	consumers, err := r.client.XInfoConsumers(ctx, stream, group).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info for stream %s, group %s: %w", stream, group, err)
	}

	result := make([]domain.ConsumerInfo, len(consumers))
	for i, c := range consumers {
		result[i] = domain.ConsumerInfo{
			Name:    c.Name,
			Pending: c.Pending,
			Idle:    c.Idle,
		}
	}
	return result, nil
}

// PendingSummary retrieves a summary of pending entries for a group.
func (r *StreamRepository) PendingSummary(ctx context.Context, stream, group string) (*domain.PendingSummary, error) {
	pending, err := r.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending summary for stream %s, group %s: %w", stream, group, err)
	}

	summary := &domain.PendingSummary{
		Total:          pending.Count,
		FirstEntryID:   pending.Lower,
		LastEntryID:    pending.Higher,
		ConsumerTotals: pending.Consumers,
	}
	return summary, nil
}

// TrimStream trims a stream to a maximum length.
func (r *StreamRepository) TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error) {
	return r.client.XTrimMaxLen(ctx, stream, maxLen).Result()
}

func isRedisBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
