/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Lightweight, context-based, RESTful route patterns.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for internal dashboards

ROUTES:
  POST /api/runs               Execute the pipeline for a date range
  GET  /api/runs/{id}/report   Persisted compensation report
  GET  /api/runs/{id}/issues   Persisted validation issues
  GET  /api/healthz            Liveness probe

SECURITY NOTE:
  No authentication middleware; the service runs on an internal network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/edcomp/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", h.CreateRun)
		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/report", h.GetReport)
			r.Get("/issues", h.GetIssues)
		})
		r.Get("/healthz", h.Health)
	})

	return r
}
