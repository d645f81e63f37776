package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/agentstation/menumerge/internal/server/events"
	"github.com/agentstation/menumerge/internal/server/response"
	"github.com/agentstation/menumerge/pkg/scheduler"
)

// HandleUpdate handles POST /api/v1/update.
//
// A cycle is started in the background; its outcome is published on the
// update streams. 409 means a cycle is already running.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, _ *http.Request) {
	if !h.client.Trigger() {
		status := h.client.Status()
		if status.State == scheduler.StateStopped {
			response.ServiceUnavailable(w, "Scheduler is stopped")
			return
		}
		response.Conflict(w, "Cycle in progress", "A reconciliation cycle is already running")
		return
	}

	h.broker.Publish(events.CycleTriggered, map[string]any{"source": "api"})
	response.Accepted(w, map[string]any{
		"status": "accepted",
	})
}

// HandleStatus handles GET /api/v1/status.
func (h *Handlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response.OK(w, map[string]any{
		"scheduler": h.client.Status(),
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      memStats.Alloc / 1024 / 1024,
			"memory_sys_mb":  memStats.Sys / 1024 / 1024,
		},
		"events": map[string]any{
			"published_total": h.broker.EventsPublished(),
			"dropped_total":   h.broker.EventsDropped(),
			"queue_depth":     h.broker.QueueDepth(),
		},
		"realtime": map[string]any{
			"websocket_clients": h.wsHub.ClientCount(),
			"sse_clients":       h.sseBroadcaster.ClientCount(),
		},
		"cache": h.cache.GetStats(),
	})
}
