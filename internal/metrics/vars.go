package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alpacapay_market_cache_hits_total",
		Help: "Fresh cache hits by data kind",
	}, []string{"kind"})

	CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alpacapay_market_cache_misses_total",
		Help: "Cache misses (absent or expired) by data kind",
	}, []string{"kind"})

	StaleFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alpacapay_market_cache_stale_fallbacks_total",
		Help: "Stale values served because the provider failed",
	}, []string{"kind"})

	ProviderErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alpacapay_provider_errors_total",
		Help: "Market data provider failures by data kind",
	}, []string{"kind"})

	FetchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "alpacapay_provider_fetch_latency_seconds",
		Help:    "Time to fetch one provider batch",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	Recommendations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alpacapay_recommendations_total",
		Help: "Recommendations produced",
	})

	EmptyRecommendations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alpacapay_recommendations_empty_total",
		Help: "Requests with no eligible asset to recommend",
	})

	BestScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alpacapay_best_score",
		Help: "Composite score of the most recent recommendation winner",
	})
)

func init() {
	prometheus.MustRegister(
		CacheHits,
		CacheMisses,
		StaleFallbacks,
		ProviderErrors,
		FetchLatency,
		Recommendations,
		EmptyRecommendations,
		BestScore,
	)
}
