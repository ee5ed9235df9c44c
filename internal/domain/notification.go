package domain

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks how urgently a notification should be surfaced to the user.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// NotificationType categorizes the origin of a notification.
type NotificationType string

const (
	TypeSystem      NotificationType = "System"
	TypeTask        NotificationType = "Task"
	TypePerformance NotificationType = "Performance"
	TypeMessage     NotificationType = "Message"
)

// Channel identifies a delivery transport for a notification.
type Channel string

const (
	ChannelSocket Channel = "socket"
	ChannelEmail  Channel = "email"
	ChannelPush   Channel = "push"
)

// NotificationTTL is how long a notification stays relevant after creation.
// Expiry is advisory; records are not deleted automatically.
const NotificationTTL = 30 * 24 * time.Hour

// Notification is the durable audit record of one request to notify a set of
// users across one or more channels. Delivered is flipped exactly once, after
// all channel attempts have completed, regardless of per-channel outcomes.
type Notification struct {
	ID         uuid.UUID        `json:"id"`
	Recipients []string         `json:"recipients,omitempty"`
	Roles      []string         `json:"roles,omitempty"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Priority   Priority         `json:"priority"`
	Type       NotificationType `json:"type"`
	Channels   []Channel        `json:"channels"`
	Delivered  bool             `json:"delivered"`
	CreatedAt  time.Time        `json:"created_at"`
	ExpiresAt  time.Time        `json:"expires_at"`
}

// NotificationRequest is the input to the notification service. Zero values
// for Priority, Type, and Channels are filled with defaults by the service.
type NotificationRequest struct {
	Recipients []string
	Roles      []string
	Title      string
	Message    string
	Priority   Priority
	Type       NotificationType
	Channels   []Channel
	// Emails seeds the outbound address set before directory resolution,
	// for callers that already hold addresses not present in the directory.
	Emails []string
}

// HasChannel reports whether ch was requested.
func (r NotificationRequest) HasChannel(ch Channel) bool {
	for _, c := range r.Channels {
		if c == ch {
			return true
		}
	}
	return false
}
