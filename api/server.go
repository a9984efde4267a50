/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard (middleware.go)

ROUTE GROUPS:
  /health                   Liveness
  /api/session              Create / inspect sessions (no session header)
  /api/analytics/summary    Aggregate analytics (no session header)
  /api/*                    Everything else requires X-Session-Id

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: CORS, session gate, rate limiting
  - cmd/server/main.go: Server startup
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServerConfig holds router-level settings.
type ServerConfig struct {
	CORS CORSConfig

	// GuidanceLimiter throttles POST /api/ai/guidance. Nil disables it.
	GuidanceLimiter *RateLimiter
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsHandler(cfg.CORS))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Open routes
		r.Post("/session", h.CreateSession)
		r.Get("/session/{sessionId}", h.GetSession)
		r.Get("/analytics/summary", h.AnalyticsSummary)

		// Session-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(requireSession(h.Sessions))

			r.Route("/financial-context", func(r chi.Router) {
				r.Get("/", h.GetFinancialContext)
				r.Post("/", h.SaveFinancialContext)
			})

			r.Route("/debts", func(r chi.Router) {
				r.Get("/", h.ListDebts)
				r.Post("/", h.CreateDebt)
				r.Post("/upload", h.UploadDebts)
				r.Put("/{id}", h.UpdateDebt)
				r.Delete("/{id}", h.DeleteDebt)
			})

			r.Route("/payoff", func(r chi.Router) {
				r.Post("/simulate", h.SimulatePayoff)
				r.Post("/compare", h.ComparePayoff)
			})

			r.Get("/recommendations", h.GetRecommendations)
			r.Get("/charts/data", h.GetChartData)

			r.Group(func(r chi.Router) {
				if cfg.GuidanceLimiter != nil {
					r.Use(cfg.GuidanceLimiter.Middleware)
				}
				r.Post("/ai/guidance", h.GetGuidance)
			})

			r.Route("/demo", func(r chi.Router) {
				r.Get("/scenarios", h.ListDemoScenarios)
				r.Post("/load", h.LoadDemoScenario)
			})

			r.Post("/analytics/track", h.TrackEvent)
			r.Get("/analytics/session", h.SessionEvents)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "Not Found",
			fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path), nil)
	})

	return r
}
