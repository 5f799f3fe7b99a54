package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StatusRecorder wraps ResponseWriter to capture status code and bytes written.
type StatusRecorder struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
	wroteHeader  bool
}

// NewStatusRecorder constructs a status recorder with default 200 status.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader stores the first status code before delegating.
func (sr *StatusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.status = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write records the number of bytes written.
func (sr *StatusRecorder) Write(p []byte) (int, error) {
	sr.wroteHeader = true
	n, err := sr.ResponseWriter.Write(p)
	sr.bytesWritten += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (sr *StatusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

// Status returns the response status code.
func (sr *StatusRecorder) Status() int { return sr.status }

// BytesWritten returns the number of bytes written to the client.
func (sr *StatusRecorder) BytesWritten() int64 { return sr.bytesWritten }

// HTTPObs instruments HTTP handlers with metrics.
type HTTPObs struct {
	Metrics *HTTPMetrics
}

// Middleware instruments request/response lifecycle with counters and histograms.
func (o HTTPObs) Middleware(next http.Handler) http.Handler {
	if o.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := NewStatusRecorder(w)
		o.Metrics.InFlight.Inc()
		start := time.Now()
		defer func() {
			o.Metrics.InFlight.Dec()
			route := routeOf(r, "unknown")
			status := strconv.Itoa(recorder.Status())
			o.Metrics.ReqTotal.WithLabelValues(r.Method, route, status).Inc()
			o.Metrics.ReqDur.WithLabelValues(r.Method, route).Observe(DurationMillis(time.Since(start)))
		}()
		next.ServeHTTP(recorder, r)
	})
}

// RoutePatternMiddleware injects the matched route pattern into request context.
func RoutePatternMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if rc := chi.RouteContext(ctx); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				ctx = WithRoutePattern(ctx, pattern)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TracingMiddleware wraps the handler in an otelhttp server span and renames
// it after the matched chi route once routing has completed.
func TracingMiddleware(next http.Handler) http.Handler {
	annotate := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := NewStatusRecorder(w)
		next.ServeHTTP(recorder, r)

		span := trace.SpanFromContext(r.Context())
		route := routeOf(r, r.URL.Path)
		span.SetName(r.Method + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		if recorder.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(recorder.Status()))
		}
	})
	return otelhttp.NewHandler(annotate, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func routeOf(r *http.Request, fallback string) string {
	if route := RoutePatternFromContext(r.Context()); route != "" {
		return route
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}
