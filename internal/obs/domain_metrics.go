package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts quote requests by outcome.
	QuotesTotal *prometheus.CounterVec
	// PromotionSelections counts which promotion won best-of-N selection.
	PromotionSelections *prometheus.CounterVec
	// QuoteCacheTotal counts quote cache lookups by result.
	QuoteCacheTotal *prometheus.CounterVec
	// QuoteAmount records quoted totals per product variant.
	QuoteAmount *prometheus.HistogramVec
)

// MustRegisterDomainMetrics creates the quote collectors once and registers
// them on reg, the default registerer when nil.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of quote requests by outcome.",
		}, []string{"result"})
		PromotionSelections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_selections_total",
			Help:      "Count of promotions chosen by best-of-N selection.",
		}, []string{"promotion"})
		QuoteCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_cache_total",
			Help:      "Count of quote cache lookups by result.",
		}, []string{"result"})
		QuoteAmount = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_total_amount",
			Help:      "Distribution of quoted totals.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}, []string{"variant"})

		QuotesTotal = registerOrReuse(reg, QuotesTotal)
		PromotionSelections = registerOrReuse(reg, PromotionSelections)
		QuoteCacheTotal = registerOrReuse(reg, QuoteCacheTotal)
		QuoteAmount = registerOrReuse(reg, QuoteAmount)
	})
}
