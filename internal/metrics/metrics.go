// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
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
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
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

	// Affinity Metrics
	AffinityRecalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinity_recalculations_total",
			Help: "Total number of topic affinity recalculations",
		},
		[]string{"mode", "status"}, // mode: "full", "incremental"
	)

	AffinityRecalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "affinity_recalculation_duration_seconds",
			Help:    "Duration of topic affinity recalculations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	AffinityTopicsStored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "affinity_topics_stored",
			Help:    "Number of topics kept per account after a full rebuild",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		},
	)

	// Similarity Metrics
	SimilarityCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_calculations_total",
			Help: "Total number of per-account similarity calculations",
		},
		[]string{"status"},
	)

	SimilarityNeighbors = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_neighbors",
			Help:    "Number of similar accounts stored per calculation",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		},
	)

	// Batch Job Metrics
	BatchAccountsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_accounts_processed_total",
			Help: "Accounts processed by batch jobs",
		},
		[]string{"job", "status"}, // job: "affinity", "similarity"
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batch_duration_seconds",
			Help:    "Duration of batch jobs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
		},
		[]string{"job"},
	)

	BatchLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "batch_last_success_timestamp",
			Help: "Unix timestamp of the last successful batch run",
		},
		[]string{"job"},
	)

	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"strategy", "served_strategy"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Recommendation generation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Personalized requests answered by the popularity strategy",
		},
		[]string{"strategy", "reason"}, // reason: "error", "timeout", "breaker_open"
	)

	RecommendationResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_results",
			Help:    "Number of publication ids returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Processor Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of job messages published",
		},
		[]string{"topic", "status"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_processed_total",
			Help: "Total number of job messages handled",
		},
		[]string{"topic", "status"},
	)

	EventProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Duration of job message handling in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"topic"},
	)

	// Maintenance Metrics
	MaintenanceRowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_rows_deleted_total",
			Help: "Rows removed by retention cleanup",
		},
		[]string{"table"},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version information",
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

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAffinityRecalculation records one full or incremental recalculation.
func RecordAffinityRecalculation(mode string, duration time.Duration, err error) {
	AffinityRecalculations.WithLabelValues(mode, statusLabel(err)).Inc()
	AffinityRecalculationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordSimilarityCalculation records one per-account similarity run and the
// number of neighbours it stored.
func RecordSimilarityCalculation(neighbors int, err error) {
	SimilarityCalculations.WithLabelValues(statusLabel(err)).Inc()
	if err == nil {
		SimilarityNeighbors.Observe(float64(neighbors))
	}
}

// RecordBatch records the outcome of a batch job over many accounts.
func RecordBatch(job string, processed, failed int, duration time.Duration) {
	BatchAccountsProcessed.WithLabelValues(job, "success").Add(float64(processed))
	BatchAccountsProcessed.WithLabelValues(job, "error").Add(float64(failed))
	BatchDuration.WithLabelValues(job).Observe(duration.Seconds())
	if failed == 0 {
		BatchLastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
	}
}

// RecordRecommendation records a served recommendation request.
func RecordRecommendation(strategy, served string, results int, duration time.Duration) {
	RecommendationRequests.WithLabelValues(strategy, served).Inc()
	RecommendationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	RecommendationResults.Observe(float64(results))
}

// RecordRecommendationFallback records a personalized request that degraded
// to popularity.
func RecordRecommendationFallback(strategy, reason string) {
	RecommendationFallbacks.WithLabelValues(strategy, reason).Inc()
}

// RecordEventPublished records a publish attempt on a job topic.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, statusLabel(err)).Inc()
}

// RecordEventProcessed records a handled job message.
func RecordEventProcessed(topic string, duration time.Duration, err error) {
	EventsProcessed.WithLabelValues(topic, statusLabel(err)).Inc()
	EventProcessingDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordMaintenanceDeleted records rows removed from a table by cleanup.
func RecordMaintenanceDeleted(table string, rows int64) {
	if rows > 0 {
		MaintenanceRowsDeleted.WithLabelValues(table).Add(float64(rows))
	}
}

// SetAppInfo publishes the build version.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}

// StatusCodeLabel formats an HTTP status code as a label value.
func StatusCodeLabel(code int) string {
	return strconv.Itoa(code)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
