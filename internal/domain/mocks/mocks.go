package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/staffstream/internal/domain"
)

// MockEventStreamRepository is a mock implementation of
// domain.EventStreamRepository for testing.
type MockEventStreamRepository struct {
	mu              sync.Mutex
	EnsuredGroups   []string
	AckedEntryIDs   []string
	ClaimedEntryIDs []string

	// ReadResults is consumed one element per ReadBatch call; once
	// exhausted, ReadBatch returns (nil, nil).
	ReadResults [][]domain.StreamEntry
	consumed    int
	readCalls   int

	PendingResult []domain.PendingEntry
	ClaimResult   []domain.StreamEntry

	EnsureErr  error
	ReadErr    error
	AckErr     error
	PendingErr error
	ClaimErr   error

	// AckErrOnce fails only the first Acknowledge call, then clears.
	AckErrOnce error
}

func (m *MockEventStreamRepository) EnsureGroup(ctx context.Context, stream, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnsureErr != nil {
		return m.EnsureErr
	}
	m.EnsuredGroups = append(m.EnsuredGroups, stream+"/"+group)
	return nil
}

func (m *MockEventStreamRepository) ReadBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]domain.StreamEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.consumed >= len(m.ReadResults) {
		return nil, nil
	}
	batch := m.ReadResults[m.consumed]
	m.consumed++
	return batch, nil
}

func (m *MockEventStreamRepository) Acknowledge(ctx context.Context, stream, group, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErrOnce != nil {
		err := m.AckErrOnce
		m.AckErrOnce = nil
		return err
	}
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedEntryIDs = append(m.AckedEntryIDs, entryID)
	return nil
}

func (m *MockEventStreamRepository) PendingEntries(ctx context.Context, stream, group string, minIdle time.Duration, count int64) ([]domain.PendingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PendingErr != nil {
		return nil, m.PendingErr
	}
	return m.PendingResult, nil
}

func (m *MockEventStreamRepository) ClaimEntries(ctx context.Context, stream, group, consumer string, minIdle time.Duration, entryIDs []string) ([]domain.StreamEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClaimErr != nil {
		return nil, m.ClaimErr
	}
	m.ClaimedEntryIDs = append(m.ClaimedEntryIDs, entryIDs...)
	return m.ClaimResult, nil
}

// ReadCalls reports how many times ReadBatch has been invoked.
func (m *MockEventStreamRepository) ReadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCalls
}

// MockStreamAdminRepository is a mock implementation of
// domain.StreamAdminRepository for testing.
type MockStreamAdminRepository struct {
	Groups    []domain.ConsumerGroupInfo
	Consumers []domain.ConsumerInfo
	Summary   *domain.PendingSummary
	Pending   []domain.PendingEntry
	Trimmed   int64
	Err       error
}

func (m *MockStreamAdminRepository) GroupInfo(ctx context.Context, stream string) ([]domain.ConsumerGroupInfo, error) {
	return m.Groups, m.Err
}

func (m *MockStreamAdminRepository) ConsumerInfo(ctx context.Context, stream, group string) ([]domain.ConsumerInfo, error) {
	return m.Consumers, m.Err
}

func (m *MockStreamAdminRepository) PendingSummary(ctx context.Context, stream, group string) (*domain.PendingSummary, error) {
	return m.Summary, m.Err
}

func (m *MockStreamAdminRepository) PendingEntries(ctx context.Context, stream, group string, minIdle time.Duration, count int64) ([]domain.PendingEntry, error) {
	return m.Pending, m.Err
}

func (m *MockStreamAdminRepository) TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error) {
	return m.Trimmed, m.Err
}

// MockNotificationRepository is a mock implementation of
// domain.NotificationRepository for testing.
type MockNotificationRepository struct {
	mu           sync.Mutex
	Stored       []domain.Notification
	DeliveredIDs []uuid.UUID
	StoreErr     error
	MarkErr      error
}

func (m *MockNotificationRepository) Store(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreErr != nil {
		return m.StoreErr
	}
	m.Stored = append(m.Stored, *n)
	return nil
}

func (m *MockNotificationRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.DeliveredIDs = append(m.DeliveredIDs, id)
	return nil
}

// MockUserDirectory is a mock implementation of domain.UserDirectory.
type MockUserDirectory struct {
	mu        sync.Mutex
	ByID      map[string]domain.User
	ByRole    map[string][]domain.User
	IDQueries [][]string
	FindErr   error
}

func (m *MockUserDirectory) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.IDQueries = append(m.IDQueries, ids)
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.ByID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (m *MockUserDirectory) FindByRoles(ctx context.Context, roles []string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	var users []domain.User
	for _, role := range roles {
		users = append(users, m.ByRole[role]...)
	}
	return users, nil
}

// Emit records one EmitToRoom call on a MockBroadcaster.
type Emit struct {
	Room    string
	Event   string
	Payload interface{}
}

// MockBroadcaster is a mock implementation of domain.Broadcaster.
type MockBroadcaster struct {
	mu      sync.Mutex
	Emits   []Emit
	EmitErr error
}

func (m *MockBroadcaster) EmitToRoom(room, event string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EmitErr != nil {
		return m.EmitErr
	}
	m.Emits = append(m.Emits, Emit{Room: room, Event: event, Payload: payload})
	return nil
}

// SentMail records one Send call on a MockMailer.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// MockMailer is a mock implementation of domain.Mailer.
type MockMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	// FailFor lists addresses whose sends return SendErr.
	FailFor []string
	SendErr error
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, addr := range m.FailFor {
		if addr == to {
			return m.SendErr
		}
	}
	if len(m.FailFor) == 0 && m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}
