package domain

import (
	"encoding/json"
	"time"
)

// ConsumerGroupInfo describes one consumer group attached to a stream.
type ConsumerGroupInfo struct {
	Name            string `json:"name"`
	Consumers       int64  `json:"consumers"`
	Pending         int64  `json:"pending"`
	LastDeliveredID string `json:"last_delivered_id"`
}

// ConsumerInfo describes a specific consumer within a group.
type ConsumerInfo struct {
	Name    string        `json:"name"`
	Pending int64         `json:"pending"`
	Idle    time.Duration `json:"-"`
}

// MarshalJSON reports the idle time in milliseconds, not Duration's native
// nanoseconds.
func (c ConsumerInfo) MarshalJSON() ([]byte, error) {
	type alias ConsumerInfo
	return json.Marshal(struct {
		alias
		IdleMs int64 `json:"idle_ms"`
	}{alias: alias(c), IdleMs: c.Idle.Milliseconds()})
}

// PendingSummary aggregates the unacknowledged entries of a consumer group.
type PendingSummary struct {
	Total          int64            `json:"total"`
	FirstEntryID   string           `json:"first_entry_id,omitempty"`
	LastEntryID    string           `json:"last_entry_id,omitempty"`
	ConsumerTotals map[string]int64 `json:"consumer_totals,omitempty"`
}
