package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	QuoteCacheTTL       time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int
	SeedDemoCatalog     bool

	RateLimitEnabled  bool
	RateLimitStrategy string
	RateLimitPeriod   time.Duration
	RateLimitMax      int64
	BodyLimitBytes    int64

	Pricing  PricingConfig
	Shipping ShippingConfig
	Obs      ObsConfig
}

// PricingConfig parameterises the configured promotions and tax policies.
type PricingConfig struct {
	PercentOff       float64
	FixedOff         float64
	FlatVATRate      float64
	DigitalVATRate   float64
	ProgressiveBands string
}

// ShippingConfig parameterises the configured shipping policies.
type ShippingConfig struct {
	CostPerKg         float64
	FlatRateFee       float64
	FreeThreshold     float64
	BelowThresholdFee float64
	ExpressBaseFee    float64
	ExpressCostPerKg  float64
}

// ObsConfig toggles logging, metrics, tracing and profiling.
type ObsConfig struct {
	LogFormat         string
	LogLevel          string
	MetricsEnabled    bool
	MetricsNamespace  string
	MetricsBucketsMS  string
	TracingEnabled    bool
	TracingExporter   string
	OTLPEndpoint      string
	TracingSampling   float64
	PprofEnabled      bool
	PprofUser         string
	PprofPass         string
	ReadyRedisTimeout time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),

		QuoteCacheTTL:       parseDuration(k.String("QUOTE_CACHE_TTL"), "5m"),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),
		SeedDemoCatalog:     parseBoolDefault(k.String("SEED_DEMO_CATALOG"), true),

		RateLimitEnabled:  parseBoolDefault(k.String("RATE_LIMIT_ENABLED"), true),
		RateLimitStrategy: strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_STRATEGY"), "fixed")),
		RateLimitPeriod:   parseDuration(k.String("RATE_LIMIT_PERIOD"), "1m"),
		RateLimitMax:      int64(parseInt(k.String("RATE_LIMIT_MAX"), 120)),
		BodyLimitBytes:    int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),

		Pricing: PricingConfig{
			PercentOff:       parseFloat(k.String("PRICING_PERCENT_OFF"), 15),
			FixedOff:         parseFloat(k.String("PRICING_FIXED_OFF"), 10000),
			FlatVATRate:      parseFloat(k.String("PRICING_FLAT_VAT"), 0.12),
			DigitalVATRate:   parseFloat(k.String("PRICING_DIGITAL_VAT"), 0.05),
			ProgressiveBands: strings.TrimSpace(k.String("PRICING_PROGRESSIVE_BANDS")),
		},
		Shipping: ShippingConfig{
			CostPerKg:         parseFloat(k.String("SHIPPING_COST_PER_KG"), 1500),
			FlatRateFee:       parseFloat(k.String("SHIPPING_FLAT_RATE_FEE"), 2000),
			FreeThreshold:     parseFloat(k.String("SHIPPING_FREE_THRESHOLD"), 100000),
			BelowThresholdFee: parseFloat(k.String("SHIPPING_BELOW_THRESHOLD_FEE"), 4000),
			ExpressBaseFee:    parseFloat(k.String("SHIPPING_EXPRESS_BASE_FEE"), 5000),
			ExpressCostPerKg:  parseFloat(k.String("SHIPPING_EXPRESS_COST_PER_KG"), 2500),
		},
		Obs: ObsConfig{
			LogFormat:         valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:          valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:    parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace:  valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "pricing"),
			MetricsBucketsMS:  k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:    parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:   valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:      strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TracingSampling:   parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			PprofEnabled:      parseBoolDefault(k.String("OBS_ENABLE_PPROF"), false),
			PprofUser:         strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:         strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
			ReadyRedisTimeout: time.Duration(parseInt(k.String("HEALTH_READY_REDIS_TIMEOUT_MS"), 300)) * time.Millisecond,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CatalogDefaultLimit < 1 || c.CatalogMaxLimit < 1 {
		return fmt.Errorf("catalog limits must be positive")
	}
	if c.CatalogDefaultLimit > c.CatalogMaxLimit {
		return fmt.Errorf("CATALOG_DEFAULT_LIMIT (%d) exceeds CATALOG_MAX_LIMIT (%d)", c.CatalogDefaultLimit, c.CatalogMaxLimit)
	}
	if c.RateLimitEnabled && (c.RateLimitMax < 1 || c.RateLimitPeriod <= 0) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_MAX and RATE_LIMIT_PERIOD")
	}
	switch c.RateLimitStrategy {
	case "fixed", "sliding":
	default:
		return fmt.Errorf("unsupported RATE_LIMIT_STRATEGY %q", c.RateLimitStrategy)
	}
	if c.RateLimitStrategy == "sliding" && c.RateLimitEnabled && !c.RedisEnabled() {
		return fmt.Errorf("RATE_LIMIT_STRATEGY=sliding requires REDIS_URL")
	}
	if c.BodyLimitBytes < 0 {
		return fmt.Errorf("BODY_LIMIT_BYTES must not be negative")
	}
	return nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// RedisEnabled reports whether a Redis URL was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
