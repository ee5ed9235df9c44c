package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/user/staffstream/internal/usecase"
)

// OpsHandler serves stream introspection requests on the ops server.
type OpsHandler struct {
	uc     *usecase.StreamOpsUseCase
	logger *slog.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(uc *usecase.StreamOpsUseCase, logger *slog.Logger) *OpsHandler {
	return &OpsHandler{uc: uc, logger: logger}
}

// HealthCheck is a simple health check endpoint.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GroupInfo handles requests for consumer group info.
// GET /admin/streams/{streamName}/groups
func (h *OpsHandler) GroupInfo(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")
	if streamName == "" {
		http.Error(w, "streamName is required", http.StatusBadRequest)
		return
	}

	groups, err := h.uc.GroupInfo(r.Context(), streamName)
	if err != nil {
		h.logger.Error("failed to get group info", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, groups)
}

// ConsumerInfo handles requests for consumer info within a group.
// GET /admin/streams/{streamName}/groups/{groupName}/consumers
func (h *OpsHandler) ConsumerInfo(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")
	groupName := r.PathValue("groupName")

	consumers, err := h.uc.ConsumerInfo(r.Context(), streamName, groupName)
	if err != nil {
		h.logger.Error("failed to get consumer info", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, consumers)
}

// PendingSummary handles requests for the pending-entries summary.
// GET /admin/streams/{streamName}/groups/{groupName}/pending
func (h *OpsHandler) PendingSummary(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")
	groupName := r.PathValue("groupName")

	summary, err := h.uc.PendingSummary(r.Context(), streamName, groupName)
	if err != nil {
		h.logger.Error("failed to get pending summary", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, summary)
}

// PendingEntries handles requests to list pending entries.
// GET /admin/streams/{streamName}/groups/{groupName}/pending/entries?min_idle={dur}&count={count}
func (h *OpsHandler) PendingEntries(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")
	groupName := r.PathValue("groupName")

	var minIdle time.Duration
	if v := r.URL.Query().Get("min_idle"); v != "" {
		var err error
		minIdle, err = time.ParseDuration(v)
		if err != nil {
			http.Error(w, "invalid min_idle parameter", http.StatusBadRequest)
			return
		}
	}

	var count int64 = 100
	if v := r.URL.Query().Get("count"); v != "" {
		var err error
		count, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid count parameter", http.StatusBadRequest)
			return
		}
	}

	entries, err := h.uc.PendingEntries(r.Context(), streamName, groupName, minIdle, count)
	if err != nil {
		h.logger.Error("failed to get pending entries", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, entries)
}

// TrimStream handles requests to trim a stream.
// POST /admin/streams/{streamName}/trim
func (h *OpsHandler) TrimStream(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")

	var payload struct {
		MaxLen int64 `json:"maxlen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if payload.MaxLen <= 0 {
		http.Error(w, "maxlen must be a positive integer", http.StatusBadRequest)
		return
	}

	trimmed, err := h.uc.TrimStream(r.Context(), streamName, payload.MaxLen)
	if err != nil {
		h.logger.Error("failed to trim stream", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]int64{"trimmed": trimmed})
}

func (h *OpsHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
