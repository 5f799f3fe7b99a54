package obs

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBucketsMS are the latency buckets used when none are configured.
var DefaultBucketsMS = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}

// HTTPMetrics groups the collectors fed by HTTPObs.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP collectors on reg (the default registerer
// when nil). Collectors already registered under the same name are reused.
func NewHTTPMetrics(namespace string, bucketsMS []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	buckets := DefaultBucketsMS
	if len(bucketsMS) > 0 {
		buckets = append([]float64(nil), bucketsMS...)
		sort.Float64s(buckets)
	}
	return &HTTPMetrics{
		ReqTotal: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"})),
		ReqDur: registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"})),
		InFlight: registerOrReuse(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "HTTP requests currently being served.",
		})),
	}
}

// ParseBucketsCSV reads "5,10,25" into bucket boundaries, skipping entries
// that are not positive numbers.
func ParseBucketsCSV(csv string) []float64 {
	var out []float64
	for _, part := range strings.Split(csv, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err == nil && v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// DurationMillis converts d to fractional milliseconds.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// registerOrReuse registers c, returning the existing collector when an
// identical one is already registered. Any other registration error panics.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}
