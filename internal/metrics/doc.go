// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto at
package init, so importing the package is enough to expose them on /metrics.

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

Engine Metrics:
  - affinity_recalculations_total: Labels mode (full, incremental), status
  - affinity_recalculation_duration_seconds: Labels mode
  - affinity_topics_stored: Topics kept per account after a rebuild
  - similarity_calculations_total: Labels status
  - similarity_neighbors: Neighbours stored per calculation
  - batch_accounts_processed_total: Labels job, status
  - batch_duration_seconds, batch_last_success_timestamp: Labels job
  - recommendation_requests_total: Labels strategy, served_strategy
  - recommendation_duration_seconds: Labels strategy
  - recommendation_fallbacks_total: Labels strategy, reason
  - recommendation_results: Ids returned per request

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Labels name, result
  - circuit_breaker_state_transitions_total: Labels name, from_state, to_state

Event Processor Metrics:
  - events_published_total, events_processed_total: Labels topic, status
  - event_processing_duration_seconds: Labels topic

Maintenance Metrics:
  - maintenance_rows_deleted_total: Labels table

# Example PromQL

	# Share of personalized requests served by the popularity fallback
	sum(rate(recommendation_fallbacks_total[5m])) / sum(rate(recommendation_requests_total[5m]))

	# p95 recommendation latency per strategy
	histogram_quantile(0.95, sum by (le, strategy) (rate(recommendation_duration_seconds_bucket[5m])))

# Cardinality Management

Labels never carry account or publication ids. HTTP endpoints are recorded by
chi route pattern rather than raw path.
*/
package metrics
