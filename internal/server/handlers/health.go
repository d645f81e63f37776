package handlers

import (
	"context"
	"net/http"

	"github.com/agentstation/menumerge/internal/server/response"
	"github.com/agentstation/menumerge/pkg/constants"
)

// HandleHealth handles GET /health and GET /api/v1/health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "menumerge",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready. The service is ready when the
// store backend answers a ping.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DefaultTimeout)
	defer cancel()

	if err := h.client.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Readiness check failed")
		response.ServiceUnavailable(w, "Store not reachable")
		return
	}

	response.OK(w, map[string]any{
		"status": "ready",
		"cache": map[string]any{
			"items": h.cache.ItemCount(),
		},
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	})
}
