package security

import (
	"net/http"
	"strconv"
)

// Headers configures the security headers attached to API responses.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// Middleware attaches standard security headers to each response. Quotes are
// priced against mutable state, so responses are never cached by clients.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		headers.Set("Cache-Control", "no-store")
		if h.EnableHSTS && r.TLS != nil {
			maxAge := h.HSTSMaxAge
			if maxAge <= 0 {
				maxAge = 31536000
			}
			value := "max-age=" + strconv.Itoa(maxAge)
			if h.HSTSIncludeSubdomains {
				value += "; includeSubDomains"
			}
			headers.Set("Strict-Transport-Security", value)
		}
		next.ServeHTTP(w, r)
	})
}
