// Package router assembles the HTTP routes for the scheduling API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/healthfirst/scheduling-assistant/internal/http/handlers"
	httpmiddleware "github.com/healthfirst/scheduling-assistant/internal/http/middleware"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Scheduling         *handlers.SchedulingHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.Scheduling.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/chat/greeting", cfg.Scheduling.Greeting)
	r.Post("/chat", cfg.Scheduling.Chat)
	r.Delete("/chat/sessions/{sessionID}", cfg.Scheduling.ResetSession)
	r.Get("/slots", cfg.Scheduling.Slots)
	r.Route("/appointments/{appointmentID}", func(r chi.Router) {
		r.Get("/", cfg.Scheduling.Appointment)
		r.Post("/cancel", cfg.Scheduling.Cancel)
	})
	r.Get("/admin/report", cfg.Scheduling.Report)

	return r
}
