package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the process-wide readiness flag. The server clears it when
// draining so load balancers stop routing new requests.
func SetReady(v bool) { ready.Store(v) }

// Checker probes one dependency for readiness.
type Checker interface {
	Name() string
	Ping(ctx context.Context, timeout time.Duration) error
}

// RedisChecker pings a Redis client.
type RedisChecker struct {
	Client redis.UniversalClient
}

// Name implements Checker.
func (RedisChecker) Name() string { return "redis" }

// Ping implements Checker.
func (c RedisChecker) Ping(ctx context.Context, timeout time.Duration) error {
	if c.Client == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Client.Ping(ctx).Err()
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checkers []Checker
	Timeout  time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	healthy := ready.Load()
	if !healthy {
		status["server"] = "draining"
	}
	for _, c := range h.Checkers {
		if c == nil {
			continue
		}
		if err := c.Ping(r.Context(), h.timeout()); err != nil {
			status[c.Name()] = err.Error()
			healthy = false
			continue
		}
		status[c.Name()] = "ok"
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.Timeout
}
