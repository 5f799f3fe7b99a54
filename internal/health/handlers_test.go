package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pricing/internal/health"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Ping(_ context.Context, _ time.Duration) error { return s.err }

func decodeStatus(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var status map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	return status
}

func TestLive(t *testing.T) {
	handler := health.Handler{}
	rr := httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadyWithoutDependencies(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, decodeStatus(t, rr))
}

func TestReadyFailure(t *testing.T) {
	handler := health.Handler{Checkers: []health.Checker{
		stubChecker{name: "cache"},
		stubChecker{name: "redis", err: errors.New("redis down")},
	}}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	status := decodeStatus(t, rr)
	require.Equal(t, "ok", status["cache"])
	require.Equal(t, "redis down", status["redis"])
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	handler := health.Handler{Checkers: []health.Checker{health.RedisChecker{Client: client}}, Timeout: 100 * time.Millisecond}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", decodeStatus(t, rr)["redis"])

	mr.Close()
	rr = httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestReadyWhileDraining(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	handler := health.Handler{Checkers: []health.Checker{stubChecker{name: "redis"}}}

	health.SetReady(false)
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, map[string]string{"server": "draining", "redis": "ok"}, decodeStatus(t, rr))

	rr = httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
