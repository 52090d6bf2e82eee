package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported by the service. All
// methods are nil-safe so components can be wired without metrics in tests.
type Metrics struct {
	cacheHits          *prometheus.CounterVec
	cacheMisses        prometheus.Counter
	cacheStoreFailures *prometheus.CounterVec
	providerRequests   *prometheus.CounterVec
	providerDuration   prometheus.Histogram
	warmupTasks        *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics registers the service collectors on reg and returns them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apexview_cache_hits_total",
			Help: "Cache hits, partitioned by serving tier (memo or store).",
		}, []string{"tier"}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "apexview_cache_misses_total",
			Help: "Full cache misses that reached the data provider.",
		}),
		cacheStoreFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apexview_cache_store_failures_total",
			Help: "Persistent-tier read/write failures that were recovered locally.",
		}, []string{"op"}),
		providerRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apexview_provider_requests_total",
			Help: "Requests issued to the upstream data provider, by outcome.",
		}, []string{"outcome"}),
		providerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "apexview_provider_request_duration_seconds",
			Help:    "Latency of upstream data provider requests.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		warmupTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apexview_warmup_tasks_total",
			Help: "Warm-up tasks processed at startup, by outcome.",
		}, []string{"outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apexview_http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apexview_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// CacheHit records a hit served by the given tier ("memo" or "store").
func (m *Metrics) CacheHit(tier string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(tier).Inc()
}

// CacheMiss records a full miss that invoked the data provider.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// StoreFailure records a recovered persistent-tier failure ("get" or "set").
func (m *Metrics) StoreFailure(op string) {
	if m == nil {
		return
	}
	m.cacheStoreFailures.WithLabelValues(op).Inc()
}

// ProviderRequest records one upstream request with its outcome
// ("ok", "not_found" or "error") and duration.
func (m *Metrics) ProviderRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(outcome).Inc()
	m.providerDuration.Observe(elapsed.Seconds())
}

// WarmupTask records one warm-up task outcome ("ok" or "error").
func (m *Metrics) WarmupTask(outcome string) {
	if m == nil {
		return
	}
	m.warmupTasks.WithLabelValues(outcome).Inc()
}

// HTTPRequest records one served HTTP request.
func (m *Metrics) HTTPRequest(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
