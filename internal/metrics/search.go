package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chronik",
			Name:      "search_requests_total",
			Help:      "Total number of aggregated searches",
		},
		[]string{"status"}, // ok / partial / unavailable / empty / cached
	)

	SearchStrategyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chronik",
			Name:      "search_strategy_duration_seconds",
			Help:      "Per-entity search strategy duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"type", "status"},
	)

	SearchStrategyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chronik",
			Name:      "search_strategy_failures_total",
			Help:      "Per-entity search strategy failures",
		},
		[]string{"type", "reason"}, // reason: timeout / error
	)

	SearchTrigramFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chronik",
			Name:      "search_trigram_fallback_total",
			Help:      "Trigram fallback passes run after a sparse full-text pass",
		},
		[]string{"type"},
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chronik",
			Name:      "search_results_returned",
			Help:      "Number of items returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chronik",
			Name:      "search_cache_total",
			Help:      "Search response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchStrategyDuration)
	prometheus.MustRegister(SearchStrategyFailuresTotal)
	prometheus.MustRegister(SearchTrigramFallbackTotal)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(SearchCacheTotal)
	searchMetricsRegistered = true
}
