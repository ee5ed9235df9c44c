package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/staffstream/internal/adapter/metrics"
	"github.com/user/staffstream/internal/domain"
)

// Reclaimer periodically sweeps the consumer group's pending list for
// entries whose owner went away before acknowledging, claims them for this
// process, and runs them through the same per-entry pipeline. Reprocessing
// may duplicate side effects; that is the at-least-once tradeoff.
type Reclaimer struct {
	streams  domain.EventStreamRepository
	consumer *StreamConsumer
	logger   *slog.Logger
	metrics  *metrics.PipelineMetrics

	stream   string
	group    string
	claimer  string
	interval time.Duration
	minIdle  time.Duration
	batch    int64
}

// NewReclaimer creates a reclaimer sweeping the same stream and group as the
// given consumer.
func NewReclaimer(
	streams domain.EventStreamRepository,
	consumer *StreamConsumer,
	logger *slog.Logger,
	m *metrics.PipelineMetrics,
	stream, claimer string,
	interval, minIdle time.Duration,
	batch int64,
) *Reclaimer {
	return &Reclaimer{
		streams:  streams,
		consumer: consumer,
		logger:   logger.With("component", "reclaimer", "stream", stream),
		metrics:  m,
		stream:   stream,
		group:    GroupForStream(stream),
		claimer:  claimer,
		interval: interval,
		minIdle:  minIdle,
		batch:    batch,
	}
}

// Name identifies this reclaimer to the supervisor.
func (r *Reclaimer) Name() string {
	return "reclaimer:" + r.stream
}

// Run sweeps on a fixed interval until ctx is cancelled. Sweep failures are
// logged and retried on the next tick, never fatal.
func (r *Reclaimer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reclaimer started", "interval", r.interval, "min_idle", r.minIdle)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reclaimer stopping")
			return
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				r.logger.Error("reclaim sweep failed", "error", err)
			}
		}
	}
}

func (r *Reclaimer) sweep(ctx context.Context) error {
	pending, err := r.streams.PendingEntries(ctx, r.stream, r.group, r.minIdle, r.batch)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	ids := make([]string, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}

	entries, err := r.streams.ClaimEntries(ctx, r.stream, r.group, r.claimer, r.minIdle, ids)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	r.logger.Info("reclaimed stale pending entries", "count", len(entries))
	r.metrics.ReclaimedTotal.WithLabelValues(r.stream).Add(float64(len(entries)))

	for _, entry := range entries {
		r.consumer.ProcessEntry(ctx, entry)
	}
	return nil
}
