package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)

	handlers := NewHandlers(deps)
	limiter := NewRateLimiter(deps.Config.RateLimit, time.Minute, deps.Clock)

	// Public endpoints
	r.Get("/health", handlers.Health)

	// Prediction routes, credential forwarded to the log store
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(BearerMiddleware)
			r.Use(RateLimitMiddleware(limiter))
			r.Use(JSONContentType)

			r.Get("/predict-category-mood", handlers.PredictCategory)
			r.Get("/check-category-data", handlers.CheckCategoryData)
			r.Get("/predict-all-categories", handlers.PredictAllCategories)
			r.Get("/debug-mood-data", handlers.DebugMoodData)
		})

		if !deps.Config.TrackingEnabled() || deps.Tracker == nil {
			return
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminMiddleware(deps.Config))
			r.Use(JSONContentType)

			r.Post("/tracking/run", handlers.RunTracking)
			r.Post("/tracking/actuals", handlers.UpdateActuals)
			r.Get("/tracking/weeks", handlers.TrackedWeeks)
			r.Get("/tracking/runs", handlers.SchedulerRuns)
			r.Get("/tracking/comparison", handlers.Comparison)
			r.Get("/tracking/daily-comparison", handlers.DailyComparison)
			r.Get("/reports/{user}/{week}", handlers.Report)
		})
	})

	return r
}
