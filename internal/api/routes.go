package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the Chi router
func NewRouter(h *Handler, apiToken string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(CORS)

	// Health check endpoint
	r.Get("/health", h.HealthCheck)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JSONContentType)
		r.Use(BearerAuth(apiToken))

		r.Route("/learners/{learnerID}", func(r chi.Router) {
			r.Route("/vocabulary", func(r chi.Router) {
				r.Post("/", h.SaveWord)

				// Special routes before /{lemma} to avoid conflicts
				r.Get("/due", h.GetDueWords)
				r.Get("/stats", h.MasteryStats)
				r.Get("/forecast", h.Forecast)
				r.Get("/streak", h.Streak)
				r.Post("/import", h.ImportDeck)

				r.Route("/{lemma}", func(r chi.Router) {
					r.Post("/review", h.ReviewWord)
					r.Post("/reset", h.ResetWord)
					r.Delete("/", h.DeleteWord)
				})
			})

			r.Route("/level", func(r chi.Router) {
				r.Get("/", h.AssessLevel)
				r.Post("/upgrade", h.UpgradeLevel)
				r.Post("/downgrade", h.DowngradeLevel)
				r.Get("/difficulty-mix", h.DifficultyMix)
				r.Get("/analytics", h.Analytics)
			})

			r.Post("/points", h.AwardPoints)
		})
	})

	return r
}
