package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-pricing/internal/catalog"
	"github.com/noah-isme/backend-pricing/internal/checkout"
	"github.com/noah-isme/backend-pricing/internal/common"
	"github.com/noah-isme/backend-pricing/internal/health"
	"github.com/noah-isme/backend-pricing/internal/obs"
	"github.com/noah-isme/backend-pricing/internal/policy"
	"github.com/noah-isme/backend-pricing/internal/ratelimit"
	"github.com/noah-isme/backend-pricing/internal/security"
)

// Router builds the HTTP handler tree.
func (a *App) Router() http.Handler {
	cfg := a.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if a.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if a.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: a.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: a.Logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location", "X-Total-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	if a.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Obs.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	healthHandler := health.Handler{Timeout: cfg.Obs.ReadyRedisTimeout}
	if a.Redis != nil {
		healthHandler.Checkers = append(healthHandler.Checkers, health.RedisChecker{Client: a.Redis})
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: a.Catalog, Validator: a.Validator})
	policyHandler := policy.NewHandler(a.Policies)
	checkoutHandler := &checkout.Handler{Svc: a.Checkout, Validate: a.Validator}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		if a.Limiter != nil {
			v.Use(ratelimit.Handler{
				Limiter: a.Limiter,
				Key:     ratelimit.ByClientIP,
				OnError: func(err error) {
					a.Logger.Warn().Err(err).Msg("rate_limit_backend_failed")
				},
			}.Middleware)
		}
		catalogHandler.Routes(v)
		policyHandler.Routes(v)
		checkoutHandler.Routes(v)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
