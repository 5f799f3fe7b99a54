package resilience

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	// BreakerState reports 0=closed, 1=open, 2=half-open per target.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts state changes per target.
	BreakerTransitions *prometheus.CounterVec
)

// RegisterMetrics creates and registers the breaker collectors once.
func RegisterMetrics(namespace string, reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open.",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Count of breaker state transitions.",
		}, []string{"target", "from", "to"})

		BreakerState = register(reg, BreakerState)
		BreakerTransitions = register(reg, BreakerTransitions)
	})
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
