// Package main provides the API router setup.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/spherical-ai/spherical/libs/showroom/cmd/showroom-api/handlers"
	"github.com/spherical-ai/spherical/libs/showroom/cmd/showroom-api/middleware"
	"github.com/spherical-ai/spherical/libs/showroom/internal/chat"
	"github.com/spherical-ai/spherical/libs/showroom/internal/comparison"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services are the components the router serves.
type Services struct {
	Catalog    handlers.VehicleCatalog
	Comparison *comparison.Registry
	Chat       *chat.Manager
	Database   Pinger
}

// AppConfig holds router configuration.
type AppConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	Visitor        middleware.VisitorConfig
	Tracing        bool
	ServiceName    string
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg AppConfig, svc Services) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.TraceID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"showroom"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if svc.Database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := svc.Database.PingContext(ctx); err != nil {
				logger.WithContext(r.Context()).Warn().Err(err).Msg("Readiness check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	catalogHandler := handlers.NewCatalogHandler(logger, svc.Catalog)
	comparisonHandler := handlers.NewComparisonHandler(logger, svc.Comparison, svc.Catalog)
	chatHandler := handlers.NewChatHandler(logger, svc.Chat)
	contactHandler := handlers.NewContactHandler(logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Visitor(cfg.Visitor))

		// Short requests get a timeout; chat events are long-lived.
		r.Group(func(r chi.Router) {
			if cfg.RequestTimeout > 0 {
				r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
			}

			r.Route("/{locale}", func(r chi.Router) {
				r.Get("/vehicles", catalogHandler.List)
				r.Get("/vehicles/featured", catalogHandler.Featured)
				r.Get("/vehicles/{id}", catalogHandler.Get)
				r.Get("/categories", catalogHandler.Categories)
				r.Get("/catalog", catalogHandler.Filter)
				r.Get("/compare", comparisonHandler.Compare)
			})

			r.Route("/comparison", func(r chi.Router) {
				r.Get("/", comparisonHandler.Get)
				r.Delete("/", comparisonHandler.Clear)
				r.Post("/{id}", comparisonHandler.Add)
				r.Delete("/{id}", comparisonHandler.Remove)
			})

			r.Post("/contact", contactHandler.Submit)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", chatHandler.Get)
			r.Get("/events", chatHandler.Events)
			r.Post("/open", chatHandler.Open)
			r.Post("/register", chatHandler.Register)
			r.Post("/messages", chatHandler.SendMessage)
			r.Post("/operator", chatHandler.RequestOperator)
			r.Post("/close", chatHandler.Close)
		})
	})

	if cfg.Tracing {
		return otelhttp.NewHandler(r, cfg.ServiceName)
	}
	return r
}
