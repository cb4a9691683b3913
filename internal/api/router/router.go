// Package router assembles the HTTP surface: the public WhatsApp webhook and
// the JWT-protected admin API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smartsalon/salon-booking-bot/internal/http/handlers"
	httpmiddleware "github.com/smartsalon/salon-booking-bot/internal/http/middleware"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	Webhook         *handlers.WebhookHandler
	Admin           *handlers.AdminHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Webhook != nil {
		r.Get("/webhook", cfg.Webhook.Verify)
		r.Post("/webhook", cfg.Webhook.Receive)
	}

	if cfg.Admin != nil {
		r.Post("/admin/login", cfg.Admin.Login)
		r.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/admin/bookings", cfg.Admin.ListBookings)
			admin.Get("/admin/bookings/export", cfg.Admin.ExportCSV)
			admin.Get("/admin/bookings/{id}", cfg.Admin.GetBooking)
			admin.Post("/admin/bookings/{id}/approve", cfg.Admin.Approve)
			admin.Post("/admin/bookings/{id}/reject", cfg.Admin.Reject)
			admin.Delete("/admin/bookings/{id}", cfg.Admin.DeleteBooking)
			admin.Get("/admin/stats", cfg.Admin.Stats)
		})
	}

	return r
}
