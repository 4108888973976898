package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitserver/internal/http/handlers"
	"fitserver/internal/infra"
	"fitserver/internal/middleware"
)

// Options carries the cross-cutting collaborators the router wires in front
// of the handlers.
type Options struct {
	Logger             infra.Logger
	DefaultLocale      string
	CountryLookup      middleware.CountryLookup
	RateLimitPerMinute int
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.I18N(opts.DefaultLocale, opts.CountryLookup))
	if opts.RateLimitPerMinute > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMinute, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.GenerationsCreate)
		r.Get("/{job_id}", app.GenerationStatus)
	})

	r.Get("/v1/quota/{user_id}", app.QuotaStats)

	return r
}
