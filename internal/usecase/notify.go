package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/user/staffstream/internal/adapter/metrics"
	"github.com/user/staffstream/internal/domain"
)

// NotificationEventName is the message name pushed to realtime rooms when a
// notification record is delivered over the socket channel.
const NotificationEventName = "notification"

// NotificationService is the single entry point for creating and delivering
// a notification across its requested channels. The record is persisted
// before any delivery attempt and marked delivered after all attempts have
// completed, regardless of per-channel success. Every channel runs inside
// its own error boundary so one transport's failure never suppresses the
// others or the final delivered write.
type NotificationService struct {
	records     domain.NotificationRepository
	users       domain.UserDirectory
	broadcaster domain.Broadcaster
	mailer      domain.Mailer
	logger      *slog.Logger
	metrics     *metrics.PipelineMetrics
}

// NewNotificationService creates a new NotificationService. All
// collaborators are injected; the service holds no ambient global handles.
func NewNotificationService(
	records domain.NotificationRepository,
	users domain.UserDirectory,
	broadcaster domain.Broadcaster,
	mailer domain.Mailer,
	logger *slog.Logger,
	m *metrics.PipelineMetrics,
) *NotificationService {
	return &NotificationService{
		records:     records,
		users:       users,
		broadcaster: broadcaster,
		mailer:      mailer,
		logger:      logger.With("component", "notification_service"),
		metrics:     m,
	}
}

// Send persists a notification record and attempts delivery over each
// requested channel. It returns an error only when the record itself cannot
// be persisted or finalized; channel failures are logged and counted.
func (s *NotificationService) Send(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	if req.Type == "" {
		req.Type = domain.TypeSystem
	}
	if len(req.Channels) == 0 {
		req.Channels = []domain.Channel{domain.ChannelSocket}
	}

	now := time.Now().UTC()
	notification := &domain.Notification{
		ID:         uuid.New(),
		Recipients: req.Recipients,
		Roles:      req.Roles,
		Title:      req.Title,
		Message:    req.Message,
		Priority:   req.Priority,
		Type:       req.Type,
		Channels:   req.Channels,
		Delivered:  false,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.NotificationTTL),
	}

	// The record is the durable audit trail of "a notification was
	// requested"; it is written before any delivery attempt.
	if err := s.records.Store(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to store notification record: %w", err)
	}
	s.metrics.NotificationsTotal.Inc()

	if req.HasChannel(domain.ChannelSocket) {
		s.deliverSocket(notification)
	}
	if req.HasChannel(domain.ChannelEmail) {
		s.deliverEmail(ctx, req, notification)
	}
	if req.HasChannel(domain.ChannelPush) {
		// Reserved for a future push provider integration.
		s.logger.Info("push channel requested but no provider is configured", "notification_id", notification.ID)
		s.metrics.ChannelAttempts.WithLabelValues(string(domain.ChannelPush), "ok").Inc()
	}

	if err := s.records.MarkDelivered(ctx, notification.ID); err != nil {
		return nil, fmt.Errorf("failed to mark notification delivered: %w", err)
	}
	notification.Delivered = true

	return notification, nil
}

// deliverSocket emits the record to every targeted role room and every
// recipient's private room. A user present in both a matching role room and
// the recipient list receives two deliveries; there is no cross-room
// deduplication.
func (s *NotificationService) deliverSocket(n *domain.Notification) {
	status := "ok"
	for _, role := range n.Roles {
		if err := s.broadcaster.EmitToRoom(role, NotificationEventName, n); err != nil {
			s.logger.Error("failed to emit notification to role room", "error", err, "role", role, "notification_id", n.ID)
			status = "error"
		}
	}
	for _, recipient := range n.Recipients {
		if err := s.broadcaster.EmitToRoom(recipient, NotificationEventName, n); err != nil {
			s.logger.Error("failed to emit notification to user room", "error", err, "user_id", recipient, "notification_id", n.ID)
			status = "error"
		}
	}
	s.metrics.ChannelAttempts.WithLabelValues(string(domain.ChannelSocket), status).Inc()
}

// deliverEmail resolves the target address set and sends one email per
// unique address. Resolution and send failures are isolated per lookup and
// per address.
func (s *NotificationService) deliverEmail(ctx context.Context, req domain.NotificationRequest, n *domain.Notification) {
	status := "ok"

	seen := make(map[string]struct{})
	var addresses []string
	add := func(addr string) {
		if addr == "" {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}

	for _, addr := range req.Emails {
		add(addr)
	}

	if len(req.Recipients) > 0 {
		users, err := s.users.FindByIDs(ctx, req.Recipients)
		if err != nil {
			s.logger.Error("failed to resolve recipient emails", "error", err, "notification_id", n.ID)
			status = "error"
		}
		for _, u := range users {
			add(u.Email)
		}
	}

	if len(req.Roles) > 0 {
		users, err := s.users.FindByRoles(ctx, req.Roles)
		if err != nil {
			s.logger.Error("failed to resolve role member emails", "error", err, "notification_id", n.ID)
			status = "error"
		}
		for _, u := range users {
			add(u.Email)
		}
	}

	for _, addr := range addresses {
		if err := s.mailer.Send(ctx, addr, n.Title, n.Message); err != nil {
			s.logger.Error("failed to send notification email", "error", err, "to", addr, "notification_id", n.ID)
			s.metrics.EmailsTotal.WithLabelValues("failed").Inc()
			status = "error"
			continue
		}
		s.metrics.EmailsTotal.WithLabelValues("sent").Inc()
	}

	s.metrics.ChannelAttempts.WithLabelValues(string(domain.ChannelEmail), status).Inc()
}
