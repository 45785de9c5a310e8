// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

// Package metrics provides Prometheus instrumentation for:
//   - recommendation pipeline latency, fallback depth and outcomes
//   - database query performance (DuckDB)
//   - API endpoint latency and throughput
//   - weather and explanation enrichment, with cache efficiency
//   - circuit breaker state for the external clients
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation pipeline metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_runs_total",
			Help: "Total number of recommendation pipeline runs",
		},
		[]string{"outcome"}, // "ok", "low_confidence", "error"
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation pipeline duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)

	PipelineFallbackDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_fallback_depth",
			Help:    "Filter relaxation depth consumed per pipeline run",
			Buckets: []float64{0, 1, 2, 3, 4},
		},
	)

	PipelineResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_result_count",
			Help:    "Number of trails returned per result list",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"list"}, // "exact", "suggestions", "collaborative"
	)

	// Weather enrichment metrics
	WeatherFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weather_fetch_duration_seconds",
			Help:    "Duration of forecast provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	WeatherFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetch_errors_total",
			Help: "Total number of forecast provider failures",
		},
		[]string{"reason"}, // "timeout", "http", "breaker_open", "decode"
	)

	// Explanation metrics
	ExplanationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explanations_total",
			Help: "Total number of explanations produced, by source",
		},
		[]string{"source"}, // "generated", "fallback", "cache"
	)

	ExplanationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explanation_duration_seconds",
			Help:    "Duration of explanation generation in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "weather", "explanation"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPipelineRun records the outcome of one recommendation run.
func RecordPipelineRun(duration time.Duration, fallbackDepth int, lowConfidence bool, err error) {
	PipelineDuration.Observe(duration.Seconds())
	PipelineFallbackDepth.Observe(float64(fallbackDepth))

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case lowConfidence:
		outcome = "low_confidence"
	}
	PipelineRuns.WithLabelValues(outcome).Inc()
}

// RecordResultCounts records the sizes of the three result lists.
func RecordResultCounts(exact, suggestions, collaborative int) {
	PipelineResults.WithLabelValues("exact").Observe(float64(exact))
	PipelineResults.WithLabelValues("suggestions").Observe(float64(suggestions))
	PipelineResults.WithLabelValues("collaborative").Observe(float64(collaborative))
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordExplanation records one produced explanation and its latency.
func RecordExplanation(source string, duration time.Duration) {
	ExplanationsTotal.WithLabelValues(source).Inc()
	ExplanationDuration.Observe(duration.Seconds())
}
