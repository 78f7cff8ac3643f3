package rest

import (
	"net/http"

	"article-interactions/interfaces/http/rest/handlers"
	"article-interactions/interfaces/http/rest/middleware"
	"article-interactions/pkg/errors"
	"article-interactions/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	service    handlers.InteractionService
	metrics    *observability.Collector
	logger     *zap.Logger
	debug      bool
	enableCORS bool
}

// RouterOptions toggles optional router behaviour
type RouterOptions struct {
	Debug      bool
	EnableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(
	service handlers.InteractionService,
	metrics *observability.Collector,
	logger *zap.Logger,
	opts RouterOptions,
) *Router {
	return &Router{
		service:    service,
		metrics:    metrics,
		logger:     logger,
		debug:      opts.Debug,
		enableCORS: opts.EnableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	h := handlers.NewInteractionHandler(rt.service, errors.NewErrorHandler(rt.logger, rt.debug), rt.logger)

	router.Get("/health", h.Health)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("interactions-api"), rt.logger))

		r.Route("/articles/{articleID}", func(r chi.Router) {
			r.Get("/interactions", h.ListInteractions)
			r.Get("/top", h.TopThemes)
			r.Post("/themes/{theme}/interactions", h.ApplyInteraction)
		})

		r.Route("/interactions", func(r chi.Router) {
			r.Get("/", h.Scan)
			r.Post("/batch-get", h.BatchGet)
		})
	})

	return router
}
