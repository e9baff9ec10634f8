package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_api_requests_total",
			Help: "Number of API requests",
		},
		[]string{"method", "path", "status"},
	)
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rb_api_latency_seconds",
			Help:    "API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rb_sessions_active",
			Help: "Currently open derivation sessions",
		},
	)
	RecomputePasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_recompute_passes_total",
			Help: "Recompute passes by category",
		},
		[]string{"category"},
	)
	RuleRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_rule_runs_total",
			Help: "Recompute rule executions",
		},
		[]string{"rule"},
	)
	DebounceCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rb_debounce_coalesced_total",
			Help: "Debounced rule triggers absorbed into a pending run",
		},
	)
	CatalogProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_catalog_probes_total",
			Help: "Catalog lookups by operation",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		APIRequests,
		APILatency,
		SessionsActive,
		RecomputePasses,
		RuleRuns,
		DebounceCoalesced,
		CatalogProbes,
	)
}
