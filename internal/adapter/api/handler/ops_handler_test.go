package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/staffstream/internal/domain"
	"github.com/user/staffstream/internal/domain/mocks"
	"github.com/user/staffstream/internal/usecase"
)

func newTestMux(repo *mocks.MockStreamAdminRepository) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewOpsHandler(usecase.NewStreamOpsUseCase(repo), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /admin/streams/{streamName}/groups", h.GroupInfo)
	mux.HandleFunc("GET /admin/streams/{streamName}/groups/{groupName}/consumers", h.ConsumerInfo)
	mux.HandleFunc("GET /admin/streams/{streamName}/groups/{groupName}/pending/entries", h.PendingEntries)
	mux.HandleFunc("POST /admin/streams/{streamName}/trim", h.TrimStream)
	return mux
}

func TestOpsHandler(t *testing.T) {
	t.Run("Health Check", func(t *testing.T) {
		mux := newTestMux(&mocks.MockStreamAdminRepository{})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Group Info", func(t *testing.T) {
		repo := &mocks.MockStreamAdminRepository{
			Groups: []domain.ConsumerGroupInfo{
				{Name: "notifier:evaluations", Consumers: 2, Pending: 3, LastDeliveredID: "5-0"},
			},
		}
		mux := newTestMux(repo)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/streams/evaluations/groups", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var groups []domain.ConsumerGroupInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if len(groups) != 1 || groups[0].Name != "notifier:evaluations" {
			t.Errorf("unexpected groups: %v", groups)
		}
	})

	t.Run("Consumer Info Reports Idle In Milliseconds", func(t *testing.T) {
		repo := &mocks.MockStreamAdminRepository{
			Consumers: []domain.ConsumerInfo{
				{Name: "worker-1", Pending: 2, Idle: 90 * time.Second},
			},
		}
		mux := newTestMux(repo)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/streams/evaluations/groups/g/consumers", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var consumers []map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &consumers); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if len(consumers) != 1 {
			t.Fatalf("expected 1 consumer, got %d", len(consumers))
		}
		if got := consumers[0]["idle_ms"]; got != float64(90000) {
			t.Errorf("expected idle_ms 90000, got %v", got)
		}
	})

	t.Run("Pending Entries Report Idle In Milliseconds", func(t *testing.T) {
		repo := &mocks.MockStreamAdminRepository{
			Pending: []domain.PendingEntry{
				{ID: "1-0", Consumer: "worker-1", IdleTime: 5 * time.Minute, RetryCount: 3},
			},
		}
		mux := newTestMux(repo)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/streams/evaluations/groups/g/pending/entries", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var entries []map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if got := entries[0]["idle_time_ms"]; got != float64(300000) {
			t.Errorf("expected idle_time_ms 300000, got %v", got)
		}
	})

	t.Run("Pending Entries Rejects Bad Count", func(t *testing.T) {
		mux := newTestMux(&mocks.MockStreamAdminRepository{})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/streams/evaluations/groups/g/pending/entries?count=abc", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Trim Validates MaxLen", func(t *testing.T) {
		mux := newTestMux(&mocks.MockStreamAdminRepository{})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/streams/evaluations/trim", strings.NewReader(`{"maxlen":0}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Trim Reports Count", func(t *testing.T) {
		mux := newTestMux(&mocks.MockStreamAdminRepository{Trimmed: 42})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/streams/evaluations/trim", strings.NewReader(`{"maxlen":1000}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body map[string]int64
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if body["trimmed"] != 42 {
			t.Errorf("expected 42 trimmed, got %d", body["trimmed"])
		}
	})
}
