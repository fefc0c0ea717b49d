package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/cashbarber-autobook/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/cashbarber-autobook/internal/http/middleware"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	BookingHandler *handlers.BookingHandler
	MetricsHandler http.Handler

	// TriggerJWTSecret, when set, guards the booking trigger.
	TriggerJWTSecret string
	// TriggerLimiter, when set, rate limits the booking trigger per IP.
	TriggerLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", handlers.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.BookingHandler != nil {
		r.Route("/api/cashbarber", func(api chi.Router) {
			if cfg.TriggerLimiter != nil {
				api.Use(httpmiddleware.RateLimit(cfg.TriggerLimiter))
			}
			if cfg.TriggerJWTSecret != "" {
				api.Use(httpmiddleware.TriggerJWT(cfg.TriggerJWTSecret))
			}
			api.Post("/book", cfg.BookingHandler.Trigger)
		})
	}

	return r
}
