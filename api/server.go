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
  4. CORS:       Cross-origin requests for the admin frontend
  5. httprate:   Per-IP rate limits (tighter on /api/auth)

ROUTE GROUPS:
  /api/auth/*                Login and session info
  /api/donors/*              Donor directory: reads public, writes admin
  /api/donors/stats          Admin counters (bearer token)
  /api/donors/public-stats   Public counters
  /health                    Liveness probe

RATE LIMITS:
  General API traffic is capped at 100 requests per 15 minutes per IP;
  login attempts at 5 per 15 minutes per IP so credential stuffing burns
  out before bcrypt does.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Bearer middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterConfig carries the environment-dependent router knobs.
type RouterConfig struct {
	// AllowedOrigins for CORS. Empty means localhost dev defaults.
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Liveness probe, outside the rate limiter
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "ok")
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(100, 15*time.Minute))

		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.With(httprate.LimitByIP(5, 15*time.Minute)).Post("/login", h.Login)
			r.With(h.RequireAuth).Get("/me", h.Me)
		})

		// Donor routes. The directory reads are public so blood banks can
		// embed the donor search without credentials; every mutation and
		// the full dashboard need a token.
		r.Route("/donors", func(r chi.Router) {
			r.Get("/", h.ListDonors)
			r.Get("/blood-type/{bloodType}", h.ListDonorsByBloodType)
			r.Get("/public-stats", h.GetPublicStats)
			r.Get("/{id}", h.GetDonor)
			r.Get("/{id}/donations", h.ListDonations)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAuth)

				r.Get("/stats", h.GetStats)
				r.Post("/", h.CreateDonor)
				r.Put("/{id}", h.UpdateDonor)
				r.Delete("/{id}", h.DeactivateDonor)

				// Ledger mutations
				r.Post("/{id}/donation", h.RecordDonation)
				r.Delete("/{id}/donation/{donationId}", h.DeleteDonation)
			})
		})
	})

	return r
}
