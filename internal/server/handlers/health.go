package handlers

import (
	"net/http"
	"time"

	"github.com/passkeyradar/radar/internal/server/response"
	"github.com/passkeyradar/radar/internal/tasks"
)

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":        "healthy",
		"service":       "passkey-radar",
		"uptime":        time.Since(h.startTime).Round(time.Second).String(),
		"running_tasks": len(h.tasks.List(tasks.StatusRunning)),
		"cache_items":   h.cache.ItemCount(),
	})
}
