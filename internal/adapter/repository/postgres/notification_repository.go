package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/user/staffstream/internal/domain"
)

// NotificationRepository implements domain.NotificationRepository for
// PostgreSQL.
type NotificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewNotificationRepository creates a new PostgreSQL notification repository.
func NewNotificationRepository(db *sql.DB, logger *slog.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Store inserts a notification record.
func (r *NotificationRepository) Store(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications
			(id, recipients, roles, title, message, priority, type, channels, delivered, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	channels := make([]string, len(n.Channels))
	for i, c := range n.Channels {
		channels[i] = string(c)
	}

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		pq.Array(n.Recipients),
		pq.Array(n.Roles),
		n.Title,
		n.Message,
		string(n.Priority),
		string(n.Type),
		pq.Array(channels),
		n.Delivered,
		n.CreatedAt,
		n.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// MarkDelivered flips the delivered flag on an existing record. Each record
// is only ever touched once by the call that created it, so a plain
// overwrite is sufficient.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET delivered = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("mark notification delivered: %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
