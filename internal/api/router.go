package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/clinic-booking/internal/app"
	"github.com/hackgods/clinic-booking/internal/clinicinfo"
	"github.com/hackgods/clinic-booking/internal/metrics"
)

type RouterConfig struct {
	Service     BookingService
	Directory   *clinicinfo.Directory
	Checks      map[string]app.Pinger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	RateLimit   *RateLimiter      // optional, guards every non-health route
	Idempotency *IdempotencyCache // optional, replays retried bookings
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Directory == nil {
		cfg.Directory = clinicinfo.DefaultDirectory()
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Metrics))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit.Middleware)
		}

		// Booking endpoints
		r.Get("/availability", availabilityHandler(cfg.Service))
		r.Route("/bookings", func(r chi.Router) {
			book := bookHandler(cfg.Service)
			if cfg.Idempotency != nil {
				r.With(cfg.Idempotency.Middleware).Post("/", book)
			} else {
				r.Post("/", book)
			}
			r.Get("/{code}", getBookingHandler(cfg.Service))
			r.Delete("/{code}", cancelHandler(cfg.Service))
			r.Post("/{code}/reschedule", rescheduleHandler(cfg.Service))
		})

		// Clinic information
		r.Route("/info", func(r chi.Router) {
			r.Get("/", lookupHandler(cfg.Directory))
			r.Get("/hours", hoursHandler(cfg.Directory))
			r.Get("/doctors", doctorsHandler(cfg.Directory))
			r.Get("/insurance", insuranceHandler(cfg.Directory))
			r.Get("/services", servicesHandler(cfg.Directory))
			r.Get("/location", locationHandler(cfg.Directory))
		})

		// Patient verification
		r.Post("/verify/emirates-id", verifyEmiratesIDHandler())
		r.Post("/verify/phone", verifyPhoneHandler())
	})

	return r
}
