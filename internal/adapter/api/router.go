package api

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/staffstream/internal/adapter/api/handler"
	"github.com/user/staffstream/internal/adapter/api/middleware"
	"github.com/user/staffstream/internal/usecase"
)

// NewOpsRouter configures the worker's ops server: health, metrics, the
// websocket endpoint, and stream introspection.
// Note: the admin routes use path patterns (e.g. "/{streamName}/") available
// in Go 1.22+.
func NewOpsRouter(opsUseCase *usecase.StreamOpsUseCase, hub http.Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	opsHandler := handler.NewOpsHandler(opsUseCase, logger)

	mux.HandleFunc("GET /health", opsHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /ws", hub)

	// Stream Info
	mux.HandleFunc("GET /admin/streams/{streamName}/groups", opsHandler.GroupInfo)
	mux.HandleFunc("GET /admin/streams/{streamName}/groups/{groupName}/consumers", opsHandler.ConsumerInfo)

	// Pending Entries
	mux.HandleFunc("GET /admin/streams/{streamName}/groups/{groupName}/pending", opsHandler.PendingSummary)
	mux.HandleFunc("GET /admin/streams/{streamName}/groups/{groupName}/pending/entries", opsHandler.PendingEntries)

	// Stream Operations
	mux.HandleFunc("POST /admin/streams/{streamName}/trim", opsHandler.TrimStream)

	return middleware.Logging(logger)(mux)
}
