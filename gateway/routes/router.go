package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dsponsor/core/events"
	"dsponsor/gateway/middleware"
	"dsponsor/native/factory"
)

type Config struct {
	Factory       *factory.Factory
	Events        *events.Recorder
	Observability *middleware.Observability
	RateLimiter   *middleware.RateLimiter
	CORS          middleware.CORSConfig
}

// New builds the read-only campaign API. Writes go through the campaign
// engines directly; the gateway only exposes their state.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware("root"))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	campaigns := &campaignRoutes{factory: cfg.Factory}
	r.Route("/v1", func(sr chi.Router) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware("campaigns"))
		}
		if obs != nil {
			sr.Use(obs.Middleware("campaigns"))
		}
		campaigns.mount(sr)
		if cfg.Events != nil {
			sr.Get("/events", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, cfg.Events.Events())
			})
		}
	})

	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	return r
}
