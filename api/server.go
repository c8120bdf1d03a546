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
  4. CORS:       Cross-origin requests for dashboards

AUTHENTICATION:
  Ingest routes (forecasts, deliveries, product meta) require an
  x-api-key header matching the configured key. Read-side and analysis
  routes are open; they sit behind the plant network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"crypto/subtle"
	"net/http"

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-api-key"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Ingest routes (extractor-facing, key protected)
		r.Group(func(r chi.Router) {
			r.Use(requireAPIKey(h.APIKey))
			r.Post("/forecasts", h.IngestForecasts)
			r.Post("/deliveries", h.IngestDeliveries)
			r.Put("/products/{code}/meta", h.PutProductMeta)
		})

		// Analysis routes
		r.Get("/weeks", h.ListWeeks)
		r.Route("/analysis", func(r chi.Router) {
			r.Post("/run", h.RunAnalysis)
			r.Get("/runs", h.ListAnalysisRuns)
		})
	})

	return r
}

// requireAPIKey rejects requests whose x-api-key header does not match.
// An empty configured key disables the check.
func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" {
				got := r.Header.Get("x-api-key")
				if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
					respondError(w, http.StatusUnauthorized, "invalid or missing API key")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
