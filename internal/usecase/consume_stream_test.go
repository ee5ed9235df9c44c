package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/user/staffstream/internal/domain"
	"github.com/user/staffstream/internal/domain/mocks"
)

func newTestConsumer(p *testPipeline, streams *mocks.MockEventStreamRepository, stream string) *StreamConsumer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStreamConsumer(streams, p.dispatcher, logger, p.metrics, stream, "test-consumer", 16, time.Millisecond, time.Millisecond)
}

func validEntry(id string) domain.StreamEntry {
	return domain.StreamEntry{
		ID: id,
		Values: map[string]interface{}{
			"event": `{"recipients":["u1","u2"],"formName":"Q3 Review"}`,
		},
	}
}

func TestStreamConsumer_ProcessEntry(t *testing.T) {
	t.Run("Successful Entry Is Acknowledged", func(t *testing.T) {
		p := newTestPipeline()
		streams := &mocks.MockEventStreamRepository{}
		c := newTestConsumer(p, streams, StreamEvaluations)

		c.ProcessEntry(context.Background(), validEntry("1-0"))

		if len(streams.AckedEntryIDs) != 1 || streams.AckedEntryIDs[0] != "1-0" {
			t.Errorf("expected entry acked, got %v", streams.AckedEntryIDs)
		}
		if len(p.records.Stored) != 1 {
			t.Errorf("expected a notification record, got %d", len(p.records.Stored))
		}
		if len(p.mailer.Sent) != 2 {
			t.Errorf("expected 2 emails, got %d", len(p.mailer.Sent))
		}
	})

	t.Run("Decode Failure Leaves Entry Pending", func(t *testing.T) {
		p := newTestPipeline()
		streams := &mocks.MockEventStreamRepository{}
		c := newTestConsumer(p, streams, StreamEvaluations)

		c.ProcessEntry(context.Background(), domain.StreamEntry{ID: "1-0", Values: map[string]interface{}{"other": "x"}})

		if len(streams.AckedEntryIDs) != 0 {
			t.Errorf("malformed entry must not be acked, got %v", streams.AckedEntryIDs)
		}
	})

	t.Run("Dispatch Failure Leaves Entry Pending", func(t *testing.T) {
		p := newTestPipeline()
		p.records.StoreErr = errors.New("database is down")
		streams := &mocks.MockEventStreamRepository{}
		c := newTestConsumer(p, streams, StreamEvaluations)

		c.ProcessEntry(context.Background(), validEntry("1-0"))

		if len(streams.AckedEntryIDs) != 0 {
			t.Errorf("failed entry must not be acked, got %v", streams.AckedEntryIDs)
		}
	})

	t.Run("Ack Failure Is Contained", func(t *testing.T) {
		p := newTestPipeline()
		streams := &mocks.MockEventStreamRepository{AckErrOnce: errors.New("connection reset")}
		c := newTestConsumer(p, streams, StreamEvaluations)

		// Side effects ran; the entry stays pending and will be
		// redelivered, duplicating them. Accepted at-least-once behavior.
		c.ProcessEntry(context.Background(), validEntry("1-0"))

		if len(p.records.Stored) != 1 {
			t.Errorf("side effects should have run, got %d records", len(p.records.Stored))
		}
		if len(streams.AckedEntryIDs) != 0 {
			t.Errorf("entry must not appear acked, got %v", streams.AckedEntryIDs)
		}
	})
}

func TestStreamConsumer_Run(t *testing.T) {
	t.Run("Processes Batch And Isolates Failed Entry", func(t *testing.T) {
		p := newTestPipeline()
		streams := &mocks.MockEventStreamRepository{
			ReadResults: [][]domain.StreamEntry{
				{
					validEntry("1-0"),
					{ID: "2-0", Values: map[string]interface{}{"event": `not-json`}},
					validEntry("3-0"),
				},
			},
		}
		c := newTestConsumer(p, streams, StreamEvaluations)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		c.Run(ctx)

		if len(streams.AckedEntryIDs) != 2 {
			t.Fatalf("expected 2 acked entries, got %v", streams.AckedEntryIDs)
		}
		if streams.AckedEntryIDs[0] != "1-0" || streams.AckedEntryIDs[1] != "3-0" {
			t.Errorf("entries should ack in log order, got %v", streams.AckedEntryIDs)
		}
		if len(streams.EnsuredGroups) != 1 || streams.EnsuredGroups[0] != "evaluations/notifier:evaluations" {
			t.Errorf("expected group ensured once, got %v", streams.EnsuredGroups)
		}
	})

	t.Run("Empty Reads Are The Idle Heartbeat", func(t *testing.T) {
		p := newTestPipeline()
		streams := &mocks.MockEventStreamRepository{}
		c := newTestConsumer(p, streams, StreamEvaluations)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		c.Run(ctx)

		if streams.ReadCalls() == 0 {
			t.Error("expected the loop to keep issuing blocking reads")
		}
		if len(streams.AckedEntryIDs) != 0 {
			t.Errorf("nothing should be acked, got %v", streams.AckedEntryIDs)
		}
	})

	t.Run("Read Failure Backs Off And Retries", func(t *testing.T) {
		p := newTestPipeline()
		streams := &mocks.MockEventStreamRepository{ReadErr: errors.New("connection refused")}
		c := newTestConsumer(p, streams, StreamEvaluations)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		c.Run(ctx)

		if streams.ReadCalls() < 2 {
			t.Errorf("expected repeated read attempts, got %d", streams.ReadCalls())
		}
	})

	t.Run("Group Ensure Failure Is Not Fatal", func(t *testing.T) {
		p := newTestPipeline()
		streams := &mocks.MockEventStreamRepository{
			EnsureErr:   errors.New("redis unavailable"),
			ReadResults: [][]domain.StreamEntry{{validEntry("1-0")}},
		}
		c := newTestConsumer(p, streams, StreamEvaluations)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		c.Run(ctx)

		if len(streams.AckedEntryIDs) != 1 {
			t.Errorf("consumer should proceed past ensure failure, got %v", streams.AckedEntryIDs)
		}
	})
}
