package api

import (
	"net/http"

	"github.com/bytevault/bytevault/pkg/registry"
)

// StatusHandler serves the health and store statistics endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the store open and ready for requests?
//   - Stats: File counts, open handles and capacity accounting
type StatusHandler struct {
	registry *registry.Registry
}

// NewStatusHandler creates a new status handler.
//
// The registry parameter may be nil, in which case readiness and stats
// will report unavailable.
func NewStatusHandler(registry *registry.Registry) *StatusHandler {
	return &StatusHandler{registry: registry}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint should
// always succeed as long as the HTTP server is responsive.
func (h *StatusHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthyResponse(map[string]string{
		"service": "bytevault",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK if the store is open and accepting requests, or
// 503 Service Unavailable before the registry is initialized.
func (h *StatusHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		JSON(w, http.StatusServiceUnavailable, UnhealthyResponse("store not initialized"))
		return
	}

	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		JSON(w, http.StatusServiceUnavailable, UnhealthyResponse(err.Error()))
		return
	}

	JSON(w, http.StatusOK, HealthyResponse(map[string]any{
		"files":        stats.Files,
		"open_handles": stats.OpenHandles,
	}))
}

// Stats handles GET /stats - store statistics.
//
// Returns file count, open handle count and the capacity ledger totals.
func (h *StatusHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		JSON(w, http.StatusServiceUnavailable, ErrorResponse("store not initialized"))
		return
	}

	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		JSON(w, http.StatusInternalServerError, ErrorResponse(err.Error()))
		return
	}

	JSON(w, http.StatusOK, OKResponse(stats))
}
