package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentiment"

var (
	ScorerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scorer_requests_total",
			Help:      "Texts scored, by engine",
		},
		[]string{"engine"},
	)

	ScorerFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scorer_fallbacks_total",
			Help:      "Scores replaced by the neutral value, by engine and reason",
		},
		[]string{"engine", "reason"},
	)

	ScorerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scorer_latency_seconds",
			Help:      "Latency of a single score call",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"engine"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_cache_hits_total",
			Help:      "Score cache hits, by backend",
		},
		[]string{"backend"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signal",
			Name:      "pipeline_runs_total",
			Help:      "Signal pipeline runs, by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	Latest = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "signal",
			Name:      "latest",
			Help:      "Latest signal value per asset: price, sentiment, combined (-1, 0, 1) and sentiment_score",
		},
		[]string{"asset", "kind"},
	)
)

// Fallback records a neutral-score fallback for engine.
func Fallback(engine, reason string) {
	ScorerFallbacks.WithLabelValues(engine, reason).Inc()
}
