package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/passkeyradar/radar/internal/server/handlers"
	"github.com/passkeyradar/radar/internal/server/middleware"
	"github.com/passkeyradar/radar/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logger(s.logger))
	if s.config.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(s.config.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = s.config.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		r.Use(middleware.CORS(corsConfig))
	}

	h := handlers.New(s.ctx, s.radar, s.tasks, s.cache, s.validate, s.logger, s.startTime)
	s.registerRoutes(r, h)
	return r
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(r chi.Router, h *handlers.Handlers) {
	// Favicon handler (return 204 No Content to avoid 404 logs)
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/health", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/combine", h.HandleCombine)
		r.Post("/merge", h.HandleMerge)

		r.Get("/tasks", h.HandleListTasks)
		r.Get("/tasks/{id}", h.HandleGetTask)

		r.Route("/data", func(r chi.Router) {
			r.Get("/combined/{date}", h.HandleCombined)
			r.Get("/merged/{date}", h.HandleMerged)
			r.Get("/conflicts/{date}", h.HandleConflicts)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method)
	})
}
