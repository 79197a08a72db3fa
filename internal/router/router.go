package router

import (
	"net/http"

	"whisky-collection/internal/assets"
	"whisky-collection/internal/handler"
	"whisky-collection/internal/metrics"
	"whisky-collection/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// A nil metrics disables both request instrumentation and GET /metrics.
func New(
	whiskyHandler *handler.WhiskyHandler,
	assetSource assets.Source,
	m *metrics.Metrics,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware in order: Recovery -> CorrelationID -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(logger))
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	r.Use(middleware.CORS)

	r.Get("/", handler.Home)
	r.Get("/health", handler.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/assets/*", assets.Handler(assetSource, logger))

	r.Route("/api/whiskies", func(r chi.Router) {
		r.Get("/", whiskyHandler.GetAll)
		r.Post("/", whiskyHandler.Create)
		// No ID in the path: the handlers answer 400.
		r.Put("/", whiskyHandler.Update)
		r.Delete("/", whiskyHandler.Delete)

		r.Get("/{id}", whiskyHandler.GetByID)
		r.Put("/{id}", whiskyHandler.Update)
		r.Delete("/{id}", whiskyHandler.Delete)
	})

	return r
}
