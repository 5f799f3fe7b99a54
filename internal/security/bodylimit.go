package security

import (
	"net/http"

	"github.com/noah-isme/backend-pricing/internal/common"
)

// BodyLimit enforces a maximum request payload size.
type BodyLimit struct {
	Max int64
}

// Middleware rejects requests whose declared length exceeds the limit with
// HTTP 413 and caps streamed bodies so decoders fail past the limit.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", map[string]any{"maxBytes": b.Max})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
