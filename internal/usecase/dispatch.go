package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/staffstream/internal/domain"
)

// Streams this worker consumes notifications from. The stream-to-template
// mapping below is static and known at compile time.
const (
	StreamEvaluations         = "evaluations"
	StreamEvaluationResponses = "evaluation-responses"
)

// notificationTemplate builds the fixed notification for one stream.
type notificationTemplate struct {
	title        string
	message      func(ev *domain.StreamEvent) string
	priority     domain.Priority
	notifType    domain.NotificationType
	channels     []domain.Channel
	toRecipients bool
	roles        []string
}

func (t notificationTemplate) request(ev *domain.StreamEvent) domain.NotificationRequest {
	req := domain.NotificationRequest{
		Title:    t.title,
		Message:  t.message(ev),
		Priority: t.priority,
		Type:     t.notifType,
		Channels: t.channels,
		Roles:    t.roles,
	}
	if t.toRecipients {
		req.Recipients = ev.Recipients
	}
	return req
}

var streamTemplates = map[string]notificationTemplate{
	StreamEvaluations: {
		title: "New Evaluation Assigned",
		message: func(ev *domain.StreamEvent) string {
			return fmt.Sprintf("You have been assigned the evaluation form %q.", ev.FormName)
		},
		priority:     domain.PriorityHigh,
		notifType:    domain.TypeTask,
		channels:     []domain.Channel{domain.ChannelSocket, domain.ChannelEmail},
		toRecipients: true,
	},
	StreamEvaluationResponses: {
		title: "Evaluation Response Submitted",
		message: func(ev *domain.StreamEvent) string {
			return fmt.Sprintf("A response was submitted for the evaluation form %q.", ev.FormName)
		},
		priority:  domain.PriorityMedium,
		notifType: domain.TypeTask,
		channels:  []domain.Channel{domain.ChannelSocket, domain.ChannelEmail},
		roles:     []string{domain.RoleHRManager},
	},
}

// Dispatcher routes a decoded event to realtime subscribers and, for streams
// with a known template, triggers the notification service.
type Dispatcher struct {
	notifier    *NotificationService
	broadcaster domain.Broadcaster
	logger      *slog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(notifier *NotificationService, broadcaster domain.Broadcaster, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      logger.With("component", "dispatcher"),
	}
}

// Dispatch fans the event payload out to each recipient's private room under
// the "notification" event name and then fires the stream's templated
// notification, if one exists. Realtime emits are fire-and-forget; a
// notification service error propagates so the entry is left unacknowledged.
func (d *Dispatcher) Dispatch(ctx context.Context, stream string, ev *domain.StreamEvent) error {
	for _, recipient := range ev.Recipients {
		if err := d.broadcaster.EmitToRoom(recipient, NotificationEventName, ev.Payload); err != nil {
			d.logger.Error("failed to emit event to recipient room", "error", err, "stream", stream, "user_id", recipient)
		}
	}

	tmpl, ok := streamTemplates[stream]
	if !ok {
		// Streams without a template only get recipient fan-out.
		return nil
	}

	if _, err := d.notifier.Send(ctx, tmpl.request(ev)); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", stream, err)
	}
	return nil
}
