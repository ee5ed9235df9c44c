package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/user/staffstream/internal/domain"
)

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("Evaluations Targets Event Recipients", func(t *testing.T) {
		p := newTestPipeline()
		ev := &domain.StreamEvent{
			Recipients: []string{"u1", "u2"},
			FormName:   "Q3 Review",
			Payload:    map[string]interface{}{"recipients": []interface{}{"u1", "u2"}, "formName": "Q3 Review"},
		}

		if err := p.dispatcher.Dispatch(context.Background(), StreamEvaluations, ev); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(p.records.Stored) != 1 {
			t.Fatalf("expected 1 notification record, got %d", len(p.records.Stored))
		}
		n := p.records.Stored[0]
		if n.Title != "New Evaluation Assigned" {
			t.Errorf("unexpected title %q", n.Title)
		}
		if len(n.Recipients) != 2 || n.Recipients[0] != "u1" {
			t.Errorf("expected event recipients on the record, got %v", n.Recipients)
		}
		if len(n.Roles) != 0 {
			t.Errorf("expected no roles, got %v", n.Roles)
		}
		if n.Priority != domain.PriorityHigh || n.Type != domain.TypeTask {
			t.Errorf("unexpected priority/type: %s/%s", n.Priority, n.Type)
		}

		// Fan-out to both private rooms plus socket-channel emits from
		// the notification itself, all under the same event name. Fan-out
		// emits carry the raw event payload, socket emits the record.
		fanOut := 0
		for _, emit := range p.broadcaster.Emits {
			if emit.Event != NotificationEventName {
				t.Errorf("expected event name %q, got %q", NotificationEventName, emit.Event)
			}
			if _, ok := emit.Payload.(map[string]interface{}); ok {
				fanOut++
			}
		}
		if fanOut != 2 {
			t.Errorf("expected 2 recipient fan-out emits, got %d", fanOut)
		}

		// Emails to both resolved addresses.
		if len(p.mailer.Sent) != 2 {
			t.Errorf("expected 2 emails, got %d", len(p.mailer.Sent))
		}
	})

	t.Run("Evaluation Responses Targets HR Role", func(t *testing.T) {
		p := newTestPipeline()
		ev := &domain.StreamEvent{
			FormName: "Q3 Review",
			Payload:  map[string]interface{}{"formName": "Q3 Review"},
		}

		if err := p.dispatcher.Dispatch(context.Background(), StreamEvaluationResponses, ev); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(p.records.Stored) != 1 {
			t.Fatalf("expected 1 notification record, got %d", len(p.records.Stored))
		}
		n := p.records.Stored[0]
		if n.Title != "Evaluation Response Submitted" {
			t.Errorf("unexpected title %q", n.Title)
		}
		if len(n.Roles) != 1 || n.Roles[0] != domain.RoleHRManager {
			t.Errorf("expected HR manager role target, got %v", n.Roles)
		}
		if len(n.Recipients) != 0 {
			t.Errorf("expected no explicit recipients, got %v", n.Recipients)
		}

		// Every member of the role gets an email.
		if len(p.mailer.Sent) != 2 {
			t.Errorf("expected 2 role-member emails, got %d", len(p.mailer.Sent))
		}
	})

	t.Run("Unknown Stream Only Fans Out", func(t *testing.T) {
		p := newTestPipeline()
		ev := &domain.StreamEvent{
			Recipients: []string{"u1"},
			Payload:    map[string]interface{}{"recipients": []interface{}{"u1"}},
		}

		if err := p.dispatcher.Dispatch(context.Background(), "unrelated-stream", ev); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(p.broadcaster.Emits) != 1 {
			t.Fatalf("expected 1 fan-out emit, got %d", len(p.broadcaster.Emits))
		}
		if got := p.broadcaster.Emits[0].Event; got != NotificationEventName {
			t.Errorf("expected fan-out event name %q, got %q", NotificationEventName, got)
		}
		if len(p.records.Stored) != 0 {
			t.Error("no notification record should be created for unmapped streams")
		}
	})

	t.Run("Notification Failure Propagates", func(t *testing.T) {
		p := newTestPipeline()
		p.records.StoreErr = errors.New("database is down")
		ev := &domain.StreamEvent{Recipients: []string{"u1"}}

		if err := p.dispatcher.Dispatch(context.Background(), StreamEvaluations, ev); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})

	t.Run("Emit Failure Is Fire-And-Forget", func(t *testing.T) {
		p := newTestPipeline()
		p.broadcaster.EmitErr = errors.New("transport not initialized")
		ev := &domain.StreamEvent{Recipients: []string{"u1"}}

		if err := p.dispatcher.Dispatch(context.Background(), "unrelated-stream", ev); err != nil {
			t.Fatalf("fan-out failures must not propagate, got %v", err)
		}
	})
}
