/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/snapshot, /api/overview   Ledger state reads
  /api/goals/*                   Goal management and money movement
  /api/transfer, /api/catch-up   Admin operations
  /api/spends                    Spending history
  /api/events                    SSE change feed
  /metrics                       Prometheus metrics

SECURITY NOTE:
  No authentication middleware. The server runs on a trusted family
  device; roles are self-declared per request.

SEE ALSO:
  - handlers.go: Handler implementations
  - events.go: SSE change feed
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, registry *prometheus.Registry) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", h.GetSnapshot)
		r.Get("/overview", h.GetOverview)

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", h.CreateGoal)
			r.Patch("/{id}", h.EditGoal)
			r.Delete("/{id}", h.DeleteGoal)
			r.Post("/{id}/deposit", h.Deposit)
			r.Post("/{id}/withdraw", h.Withdraw)
			r.Post("/{id}/withdraw-all", h.WithdrawAll)
			r.Put("/{id}/auto-top-up", h.SetAutoTopUp)
			r.Delete("/{id}/auto-top-up", h.DisableAutoTopUp)
		})

		r.Post("/transfer", h.Transfer)
		r.Post("/catch-up", h.RunCatchUp)

		r.Get("/spends", h.ListSpends)
		r.Get("/events", h.StreamEvents)
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return r
}
