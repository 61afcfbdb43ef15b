package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/docsched/docsched/internal/config"
	"github.com/docsched/docsched/internal/http/ratelimit"
	"github.com/docsched/docsched/internal/metrics"
	"github.com/docsched/docsched/internal/store"
)

// NewRouter wires all HTTP routes for the booking API and OAuth registration.
func NewRouter(cfg *config.Config, st *store.Store, engine Scheduler, registrar Registrar) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.New(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)
	// Booking API: 20 requests per second, burst of 50
	apiRateLimiter := ratelimit.New(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	h := NewHandler(engine, registrar, st.Audits)

	r.Route("/auth/google", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Get("/login", h.OAuthLogin)
		r.Get("/callback", h.OAuthCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Post("/book-appointment", h.BookAppointment)
		r.Post("/cancel-appointment", h.CancelAppointment)
		r.Get("/appointments", h.ListAppointments)
		r.Get("/audits", h.ListAudits)
	})

	return r
}
