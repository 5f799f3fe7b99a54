package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pricing/internal/cache"
	"github.com/noah-isme/backend-pricing/internal/catalog"
	"github.com/noah-isme/backend-pricing/internal/checkout"
	"github.com/noah-isme/backend-pricing/internal/common"
	"github.com/noah-isme/backend-pricing/internal/config"
	"github.com/noah-isme/backend-pricing/internal/obs"
	"github.com/noah-isme/backend-pricing/internal/policy"
	"github.com/noah-isme/backend-pricing/internal/ratelimit"
	"github.com/noah-isme/backend-pricing/internal/resilience"
	"github.com/noah-isme/backend-pricing/internal/tax"
)

// Options carries collaborators that override what the configuration would build.
type Options struct {
	Logger zerolog.Logger
	// Redis replaces the client built from REDIS_URL.
	Redis *redis.Client
	// Registerer receives the Prometheus collectors. Defaults to the global
	// registry. When it is also a Gatherer, /metrics serves it.
	Registerer prometheus.Registerer
	// Tracing mounts the OpenTelemetry HTTP middleware.
	Tracing bool
}

// App holds the wired services of the pricing API.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Redis     *redis.Client
	Validator *validator.Validate
	Policies  *policy.Directory
	Registry  *catalog.Registry
	Catalog   *catalog.Service
	Checkout  *checkout.Service
	Limiter   ratelimit.Limiter
	Metrics   *obs.HTTPMetrics
	Tracing   bool

	gatherer  prometheus.Gatherer
	ownsRedis bool
}

// New builds the application graph from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	a := &App{
		Config:    cfg,
		Logger:    opts.Logger,
		Redis:     opts.Redis,
		Validator: common.NewValidator(),
		Tracing:   opts.Tracing,
	}

	if a.Redis == nil && cfg.RedisEnabled() {
		client, err := connectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Redis = client
		a.ownsRedis = true
	}

	policyCfg, err := PolicyConfig(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Policies = policy.NewDirectory(policyCfg)

	a.Registry = catalog.NewRegistry()
	a.Catalog, err = catalog.NewService(catalog.ServiceConfig{
		Registry:     a.Registry,
		Shipping:     a.Policies,
		Logger:       a.Logger.With().Str("component", "catalog").Logger(),
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialise catalog service: %w", err)
	}
	if cfg.SeedDemoCatalog {
		if err := catalog.SeedDemo(ctx, a.Catalog); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed demo catalog: %w", err)
		}
	}

	if cfg.Obs.MetricsEnabled {
		resilience.RegisterMetrics(cfg.Obs.MetricsNamespace, opts.Registerer)
	}
	var quoteCache *cache.JSON
	if a.Redis != nil {
		quoteCache = cache.NewJSON(a.Redis, cfg.QuoteCacheTTL).WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
			Target:  "quote_cache",
			OpenFor: 30 * time.Second,
			Logger:  a.Logger,
		}))
	}
	a.Checkout, err = checkout.NewService(checkout.ServiceConfig{
		Catalog:  a.Catalog,
		Policies: a.Policies,
		Cache:    quoteCache,
		Logger:   a.Logger.With().Str("component", "checkout").Logger(),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialise checkout service: %w", err)
	}

	if cfg.RateLimitEnabled {
		a.Limiter, err = newLimiter(cfg, a.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, opts.Registerer)
		a.Metrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBucketsMS), opts.Registerer)
		a.gatherer = prometheus.DefaultGatherer
		if g, ok := opts.Registerer.(prometheus.Gatherer); ok {
			a.gatherer = g
		}
	}
	return a, nil
}

// Close releases the Redis client when the App created it.
func (a *App) Close() error {
	if a == nil || a.Redis == nil || !a.ownsRedis {
		return nil
	}
	err := a.Redis.Close()
	a.Redis = nil
	return err
}

// PolicyConfig maps the pricing and shipping settings onto policy parameters.
func PolicyConfig(cfg *config.Config) (policy.Config, error) {
	bands, err := tax.ParseBands(cfg.Pricing.ProgressiveBands)
	if err != nil {
		return policy.Config{}, fmt.Errorf("PRICING_PROGRESSIVE_BANDS: %w", err)
	}
	return policy.Config{
		PercentOff:        cfg.Pricing.PercentOff,
		FixedOff:          cfg.Pricing.FixedOff,
		FlatVATRate:       cfg.Pricing.FlatVATRate,
		DigitalVATRate:    cfg.Pricing.DigitalVATRate,
		ProgressiveBands:  bands,
		CostPerKg:         cfg.Shipping.CostPerKg,
		FlatRateFee:       cfg.Shipping.FlatRateFee,
		FreeThreshold:     cfg.Shipping.FreeThreshold,
		BelowThresholdFee: cfg.Shipping.BelowThresholdFee,
		ExpressBaseFee:    cfg.Shipping.ExpressBaseFee,
		ExpressCostPerKg:  cfg.Shipping.ExpressCostPerKg,
	}, nil
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func newLimiter(cfg *config.Config, client *redis.Client) (ratelimit.Limiter, error) {
	if cfg.RateLimitStrategy == "sliding" {
		if client == nil {
			return nil, errors.New("sliding rate limit requires redis")
		}
		return ratelimit.SlidingWindow{
			Client: client,
			Prefix: "ratelimit:sliding:",
			Window: cfg.RateLimitPeriod,
			Max:    int(cfg.RateLimitMax),
		}, nil
	}
	if client == nil {
		return ratelimit.NewFixedWindow(ratelimit.NewMemoryStore("ratelimit"), cfg.RateLimitPeriod, cfg.RateLimitMax), nil
	}
	store, err := ratelimit.NewRedisStore(client, "ratelimit")
	if err != nil {
		return nil, fmt.Errorf("initialise rate limit store: %w", err)
	}
	return ratelimit.NewFixedWindow(store, cfg.RateLimitPeriod, cfg.RateLimitMax), nil
}
