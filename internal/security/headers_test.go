package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	handler := Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600, HSTSIncludeSubdomains: true}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "https://example.com/api/v1/products", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	headers := rr.Result().Header
	require.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	require.Equal(t, "no-store", headers.Get("Cache-Control"))
	require.Equal(t, "max-age=600; includeSubDomains", headers.Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareSkipsHSTSWithoutTLS(t *testing.T) {
	handler := Headers{Enable: true, EnableHSTS: true}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	rr := httptest.NewRecorder()
	Headers{}.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}
