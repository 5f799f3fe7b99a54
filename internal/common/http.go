package common

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ClientIP returns the host part of the request's remote address. Routers
// mount middleware.RealIP ahead of anything calling this, so proxy headers
// have already been folded into RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ParamInt parses the named chi URL parameter as an integer. Failures are
// reported as a 400 AppError naming the parameter.
func ParamInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &AppError{
			Code:       "BAD_REQUEST",
			Message:    fmt.Sprintf("path parameter %s must be an integer", name),
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
			Details:    map[string]any{"field": name},
		}
	}
	return v, nil
}
