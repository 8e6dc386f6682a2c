package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maturitylab/benchmark/internal/config"
	"github.com/maturitylab/benchmark/internal/store"
)

func NewRouter(s store.Store, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	industries := NewIndustriesHandler(s, cfg)
	results := NewResultsHandler(s)
	surveys := NewSurveysHandler(s, cfg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantMiddleware(cfg))

		r.Post("/surveys", surveys.Create)
		r.Get("/surveys/{sid}", surveys.Get)

		r.Get("/industries/{code}", industries.Live)
		r.Get("/benchmarks/{code}", industries.Stored)

		r.Get("/results/{responseID}", results.Get)
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
