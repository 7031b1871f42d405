/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

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
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/obligations/*    Obligation lifecycle
  /api/installments/*   Payments and due-date edits
  /api/branches/*       Ledger read-back
  /api/scenarios/*      Demo scenarios (dev only)

SECURITY NOTE:
  No authentication middleware currently. The acting user is supplied by
  the upstream back-office session via X-Actor-ID.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
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
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Obligation routes
		r.Route("/obligations", func(r chi.Router) {
			r.Get("/", h.ListObligations)
			r.Post("/", h.CreateObligation)
			r.Get("/{id}", h.GetObligation)
			r.Post("/{id}/cancel", h.CancelObligation)
			r.Post("/{id}/default", h.DefaultObligation)
		})

		// Installment routes
		r.Route("/installments", func(r chi.Router) {
			r.Post("/{id}/payments", h.ApplyPayment)
			r.Put("/{id}/due-date", h.EditDueDate)
		})

		// Ledger read-back
		r.Route("/branches", func(r chi.Router) {
			r.Get("/{branchID}/ledger", h.ListLedger)
		})

		// Demo scenarios
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
