package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/staffstream/internal/adapter/metrics"
	"github.com/user/staffstream/internal/domain"
)

// GroupForStream derives the deterministic consumer group name for a stream.
func GroupForStream(stream string) string {
	return "notifier:" + stream
}

// StreamConsumer durably consumes one stream under a consumer group. Entries
// are processed sequentially within a batch; a failure on one entry is
// isolated to that entry and leaves it pending for redelivery. Read-level
// failures are retried with a fixed backoff, indefinitely.
type StreamConsumer struct {
	streams    domain.EventStreamRepository
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *metrics.PipelineMetrics

	stream   string
	group    string
	consumer string

	batchSize   int64
	readBlock   time.Duration
	readBackoff time.Duration
}

// NewStreamConsumer creates a consumer for one stream.
func NewStreamConsumer(
	streams domain.EventStreamRepository,
	dispatcher *Dispatcher,
	logger *slog.Logger,
	m *metrics.PipelineMetrics,
	stream, consumer string,
	batchSize int64,
	readBlock, readBackoff time.Duration,
) *StreamConsumer {
	return &StreamConsumer{
		streams:     streams,
		dispatcher:  dispatcher,
		logger:      logger.With("component", "stream_consumer", "stream", stream),
		metrics:     m,
		stream:      stream,
		group:       GroupForStream(stream),
		consumer:    consumer,
		batchSize:   batchSize,
		readBlock:   readBlock,
		readBackoff: readBackoff,
	}
}

// Name identifies this consumer to the supervisor.
func (c *StreamConsumer) Name() string {
	return "consumer:" + c.stream
}

// Run is the consume loop. It returns only when ctx is cancelled; the batch
// in flight finishes entry by entry first, so shutdown never abandons an
// entry mid-pipeline.
func (c *StreamConsumer) Run(ctx context.Context) {
	if err := c.streams.EnsureGroup(ctx, c.stream, c.group); err != nil {
		// A genuinely broken stream will fail again on read; keep going.
		c.logger.Error("failed to ensure consumer group", "error", err, "group", c.group)
	}

	c.logger.Info("stream consumer started", "group", c.group, "consumer", c.consumer)

	for {
		if ctx.Err() != nil {
			c.logger.Info("stream consumer stopping")
			return
		}

		entries, err := c.streams.ReadBatch(ctx, c.stream, c.group, c.consumer, c.batchSize, c.readBlock)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("stream consumer stopping")
				return
			}
			c.logger.Error("failed to read from stream", "error", err)
			select {
			case <-time.After(c.readBackoff):
			case <-ctx.Done():
			}
			continue
		}

		// A nil batch is the idle heartbeat (blocking read timed out).
		// The batch in flight is processed on a detached context so a
		// shutdown signal cannot strand a half-delivered entry without
		// its acknowledgment.
		drainCtx := context.WithoutCancel(ctx)
		for _, entry := range entries {
			c.ProcessEntry(drainCtx, entry)
		}
	}
}

// ProcessEntry runs the full per-entry pipeline: decode, dispatch,
// acknowledge. Any failure is logged with the entry ID and leaves the entry
// unacknowledged; it never propagates to sibling entries.
func (c *StreamConsumer) ProcessEntry(ctx context.Context, entry domain.StreamEntry) {
	event, err := domain.DecodeStreamEvent(entry.Values)
	if err != nil {
		c.logger.Error("failed to decode stream entry", "error", err, "entry_id", entry.ID)
		c.metrics.EntriesTotal.WithLabelValues(c.stream, "failed").Inc()
		return
	}

	if err := c.dispatcher.Dispatch(ctx, c.stream, event); err != nil {
		c.logger.Error("failed to dispatch stream entry", "error", err, "entry_id", entry.ID)
		c.metrics.EntriesTotal.WithLabelValues(c.stream, "failed").Inc()
		return
	}

	// Acknowledge only after all side effects have completed. An ack
	// failure leaves a successfully processed entry pending; redelivery
	// then duplicates side effects, which is the at-least-once tradeoff.
	if err := c.streams.Acknowledge(ctx, c.stream, c.group, entry.ID); err != nil {
		c.logger.Error("failed to acknowledge stream entry", "error", err, "entry_id", entry.ID)
		c.metrics.EntriesTotal.WithLabelValues(c.stream, "failed").Inc()
		return
	}

	c.metrics.EntriesTotal.WithLabelValues(c.stream, "acked").Inc()
}
