// Package metrics provides Prometheus metrics for the Wikia MCP server.
// It tracks tool calls, wiki API latency, memo cache performance, rate
// limiting and page resolution outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace and subsystem for all metrics
const (
	Namespace = "wikia_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures request latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing requests
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// CacheHits counts memo cache hits by memoized function
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_hits_total",
		Help:      "Total memo cache hit count",
	}, []string{"function"})

	// CacheMisses counts memo cache misses by memoized function
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_misses_total",
		Help:      "Total memo cache miss count",
	}, []string{"function"})

	// CacheSize tracks current cache entry count
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "cache_entries",
		Help:      "Current number of memo cache entries",
	})

	// WikiAPILatency measures wiki API call latency by action
	WikiAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "wiki_api_latency_seconds",
		Help:      "Wiki API call latency by action",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	// WikiAPIRequestsTotal counts wiki API requests
	WikiAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_requests_total",
		Help:      "Total wiki API requests by action and status",
	}, []string{"action", "status"})

	// WikiAPIErrors counts wiki API errors by error code
	WikiAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_errors_total",
		Help:      "Wiki API errors by action and error code",
	}, []string{"action", "error_code"})

	// RateLimitWaits counts requests that had to wait for the rate gate
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_waits_total",
		Help:      "Requests that waited for the rate limit interval",
	})

	// RateLimitWaitDuration measures time spent blocked by the rate gate
	RateLimitWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "rate_limit_wait_seconds",
		Help:      "Time spent waiting for the rate limit interval",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// PageResolutions counts page resolution outcomes
	PageResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "page_resolutions_total",
		Help:      "Page resolution outcomes (resolved, missing, redirect, disambiguation, loop)",
	}, []string{"outcome"})

	// RedirectsFollowed counts redirect hops taken while resolving pages
	RedirectsFollowed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "redirects_followed_total",
		Help:      "Redirect hops followed during page resolution",
	})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// ContentSize tracks content sizes processed
	ContentSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "content_size_bytes",
		Help:      "Content size distribution in bytes",
		Buckets:   []float64{100, 1000, 10000, 50000, 100000, 250000, 500000, 1000000},
	}, []string{"facet"})
)

// RecordRequest records a completed request with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RequestsTotal.WithLabelValues(tool, status).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records a wiki API call
func RecordAPICall(action string, duration float64, success bool, errorCode string) {
	status := "success"
	if !success {
		status = "error"
	}
	WikiAPIRequestsTotal.WithLabelValues(action, status).Inc()
	WikiAPILatency.WithLabelValues(action).Observe(duration)
	if errorCode != "" {
		WikiAPIErrors.WithLabelValues(action, errorCode).Inc()
	}
}

// RecordCacheAccess records a cache hit or miss for a memoized function
func RecordCacheAccess(function string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(function).Inc()
	} else {
		CacheMisses.WithLabelValues(function).Inc()
	}
}

// SetCacheSize updates the current cache size gauge
func SetCacheSize(size int64) {
	CacheSize.Set(float64(size))
}

// RecordRateLimitWait records time spent blocked by the rate gate.
// Zero waits are not counted.
func RecordRateLimitWait(d time.Duration) {
	if d <= 0 {
		return
	}
	RateLimitWaits.Inc()
	RateLimitWaitDuration.Observe(d.Seconds())
}

// RecordResolution records the outcome of a page resolution.
func RecordResolution(outcome string) {
	PageResolutions.WithLabelValues(outcome).Inc()
}

// RecordRedirect records one followed redirect hop.
func RecordRedirect() {
	RedirectsFollowed.Inc()
}

// RecordContentSize records the size of a loaded page facet.
func RecordContentSize(facet string, size int) {
	ContentSize.WithLabelValues(facet).Observe(float64(size))
}
