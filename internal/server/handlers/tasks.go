package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/passkeyradar/radar/internal/server/response"
	"github.com/passkeyradar/radar/internal/tasks"
)

// HandleListTasks handles GET /api/tasks[?status=running|success|error].
func (h *Handlers) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	status, err := tasks.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, h.tasks.List(status))
}

// HandleGetTask handles GET /api/tasks/{id}.
func (h *Handlers) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, task)
}
