package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-pricing/internal/common"
)

// KeyFunc derives the bucket a request counts against.
type KeyFunc func(*http.Request) string

// ByClientIP buckets requests per client address.
func ByClientIP(r *http.Request) string {
	return "ip:" + common.ClientIP(r)
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter Limiter
	Key     KeyFunc
	// OnError is called when the limiter backend fails; the request is let through.
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || h.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := h.Limiter.Allow(r.Context(), h.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(max(decision.Limit, 0)))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.Reset).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
