package security

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	var captured string
	handler := BodyLimit{Max: 10}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader("hello")))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "hello", captured)
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	called := false
	handler := BodyLimit{Max: 4}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader("too large")))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.False(t, called)
	require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestBodyLimitCapsStreamedBody(t *testing.T) {
	var readErr error
	handler := BodyLimit{Max: 4}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader("streamed payload"))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	require.True(t, errors.As(readErr, &maxErr))
}
