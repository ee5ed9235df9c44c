package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventFieldKey is the entry field holding the serialized event payload.
const EventFieldKey = "event"

// StreamEntry is one raw record claimed from a stream: the log-assigned entry
// ID plus the flat field map as stored.
type StreamEntry struct {
	ID     string
	Values map[string]interface{}
}

// PendingEntry describes an entry delivered to a consumer but not yet
// acknowledged.
type PendingEntry struct {
	ID         string        `json:"id"`
	Consumer   string        `json:"consumer"`
	IdleTime   time.Duration `json:"-"`
	RetryCount int64         `json:"retry_count"`
}

// MarshalJSON reports the idle time in milliseconds, not Duration's native
// nanoseconds.
func (p PendingEntry) MarshalJSON() ([]byte, error) {
	type alias PendingEntry
	return json.Marshal(struct {
		alias
		IdleTimeMs int64 `json:"idle_time_ms"`
	}{alias: alias(p), IdleTimeMs: p.IdleTime.Milliseconds()})
}

// StreamEvent is the decoded form of a stream entry's event payload. It lives
// only for the duration of one processing attempt.
type StreamEvent struct {
	Recipients []string `json:"recipients"`
	FormName   string   `json:"formName"`
	// Payload holds the full decoded object, including keys this process
	// does not interpret, so fan-out delivers what the producer sent.
	Payload map[string]interface{} `json:"-"`
}

// DecodeStreamEvent extracts a StreamEvent from an entry's field map. A
// missing event field or malformed payload is an error scoped to this entry;
// a missing recipients list is not.
func DecodeStreamEvent(values map[string]interface{}) (*StreamEvent, error) {
	raw, ok := values[EventFieldKey]
	if !ok {
		return nil, fmt.Errorf("entry has no %q field", EventFieldKey)
	}

	data, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("entry field %q is not a string", EventFieldKey)
	}

	var event StreamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &event.Payload); err != nil {
		return nil, fmt.Errorf("event payload is not an object: %w", err)
	}

	return &event, nil
}
