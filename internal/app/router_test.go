package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pricing/internal/config"
	"github.com/noah-isme/backend-pricing/internal/ratelimit"
)

const laptopQuote = `{"productId":"LP001","quantity":2,"promotionIds":["percent-off"],"taxPolicyId":"progressive-vat"}`

func testConfig(t *testing.T, overrides map[string]string) *config.Config {
	t.Helper()
	env := map[string]string{
		"APP_ENV":               "test",
		"REDIS_URL":             "",
		"SEED_DEMO_CATALOG":     "true",
		"RATE_LIMIT_ENABLED":    "false",
		"RATE_LIMIT_STRATEGY":   "fixed",
		"OBS_ENABLE_PROMETHEUS": "true",
		"OBS_METRICS_NAMESPACE": "pricing_test",
		"OBS_ENABLE_PPROF":      "false",
		"BODY_LIMIT_BYTES":      "",
	}
	for k, v := range overrides {
		env[k] = v
	}
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts Options) *App {
	t.Helper()
	opts.Logger = zerolog.Nop()
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}
	a, err := New(context.Background(), cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = "192.0.2.10:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type quoteBody struct {
	Data struct {
		ID        string `json:"id"`
		Cached    bool   `json:"cached"`
		Breakdown struct {
			Total float64 `json:"total"`
		} `json:"breakdown"`
	} `json:"data"`
}

func TestRouterServesPricingAPI(t *testing.T) {
	a := newTestApp(t, testConfig(t, nil), Options{})
	h := a.Router()

	rec := serve(h, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = serve(h, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

	rec = serve(h, http.MethodPost, "/api/v1/quotes", laptopQuote)
	require.Equal(t, http.StatusOK, rec.Code)
	var quote quoteBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.InDelta(t, 304500.0, quote.Data.Breakdown.Total, 1e-6)
	require.False(t, quote.Data.Cached)

	rec = serve(h, http.MethodGet, "/api/v1/shipping-policies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"id":"express"`)

	rec = serve(h, http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = serve(h, http.MethodPost, "/health/live", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"METHOD_NOT_ALLOWED"`)

	rec = serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "pricing_test_http_requests_total")
	require.Contains(t, rec.Body.String(), `route="/api/v1/quotes"`)
}

func TestRouterRejectsOversizedBodies(t *testing.T) {
	a := newTestApp(t, testConfig(t, map[string]string{"BODY_LIMIT_BYTES": "32"}), Options{})
	rec := serve(a.Router(), http.MethodPost, "/api/v1/quotes", laptopQuote)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"PAYLOAD_TOO_LARGE"`)
}

func TestRouterRateLimitsWithMemoryStore(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"RATE_LIMIT_ENABLED": "true",
		"RATE_LIMIT_MAX":     "2",
		"RATE_LIMIT_PERIOD":  "1m",
	})
	a := newTestApp(t, cfg, Options{})
	require.IsType(t, &ratelimit.FixedWindow{}, a.Limiter)
	h := a.Router()

	for i := 0; i < 2; i++ {
		rec := serve(h, http.MethodGet, "/api/v1/promotions", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := serve(h, http.MethodGet, "/api/v1/promotions", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = serve(h, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterWithRedisCachesQuotes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig(t, map[string]string{
		"REDIS_URL":           "redis://" + mr.Addr(),
		"RATE_LIMIT_ENABLED":  "true",
		"RATE_LIMIT_STRATEGY": "sliding",
		"RATE_LIMIT_MAX":      "10",
	})
	a := newTestApp(t, cfg, Options{Redis: client})
	require.IsType(t, ratelimit.SlidingWindow{}, a.Limiter)
	h := a.Router()

	rec := serve(h, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"redis":"ok"`)

	var first, second quoteBody
	rec = serve(h, http.MethodPost, "/api/v1/quotes", laptopQuote)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	rec = serve(h, http.MethodPost, "/api/v1/quotes", laptopQuote)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.True(t, second.Data.Cached)
	require.Equal(t, first.Data.ID, second.Data.ID)
	require.Equal(t, "8", rec.Header().Get("X-RateLimit-Remaining"))

	require.NoError(t, a.Close())
	require.NoError(t, client.Ping(context.Background()).Err(), "caller-owned client stays open")
}

func TestNewRejectsBadBands(t *testing.T) {
	cfg := testConfig(t, map[string]string{"PRICING_PROGRESSIVE_BANDS": "100-0.05"})
	_, err := New(context.Background(), cfg, Options{Registerer: prometheus.NewRegistry()})
	require.Error(t, err)
}

func TestNewWithoutSeed(t *testing.T) {
	a := newTestApp(t, testConfig(t, map[string]string{"SEED_DEMO_CATALOG": "false"}), Options{})
	rec := serve(a.Router(), http.MethodPost, "/api/v1/quotes", laptopQuote)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
