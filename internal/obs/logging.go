package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// LogConfig selects the output format, minimum level and destination.
type LogConfig struct {
	// Format is "json" (default) or "console".
	Format string
	Level  string
	// Output defaults to stdout.
	Output io.Writer
}

// NewLogger builds the process logger and sets the global level from cfg.
// An unknown level falls back to info.
func NewLogger(cfg LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if f := strings.ToLower(strings.TrimSpace(cfg.Format)); f == "console" || f == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// RequestLogger records one structured line per request and attaches a
// request-scoped logger to the context for handlers (see ContextLogger).
// 5xx responses log at error level and 4xx at warn.
type RequestLogger struct {
	Logger zerolog.Logger
}

// Middleware implements chi middleware for structured request logs.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := NewStatusRecorder(w)

		fields := l.Logger.With().Str("request_id", middleware.GetReqID(r.Context()))
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			fields = fields.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		scoped := fields.Logger()
		next.ServeHTTP(recorder, r.WithContext(scoped.WithContext(r.Context())))

		status := recorder.Status()
		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = scoped.Error().Bool("server_error", true)
		case status >= http.StatusBadRequest:
			evt = scoped.Warn()
		default:
			evt = scoped.Info()
		}
		evt = evt.
			Str("method", r.Method).
			Str("route", routeOf(r, r.URL.Path)).
			Str("path", r.URL.Path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int64("bytes", recorder.BytesWritten()).
			Str("remote_addr", r.RemoteAddr)
		if ua := r.UserAgent(); ua != "" {
			evt = evt.Str("user_agent", ua)
		}
		evt.Msg("http_request")
	})
}
