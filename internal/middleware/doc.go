// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

/*
Package middleware provides the HTTP middleware shared by every API route.

# Middleware

  - RequestID: accepts or generates X-Request-ID and X-Correlation-ID and
    stores both in the request context for logging.
  - PrometheusMetrics: records request count, latency and in-flight gauge,
    labelled by the chi route pattern rather than the raw path.
  - SlowRequests: logs requests slower than a threshold.
  - MaxBodyBytes: caps request body size.

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SlowRequests(time.Second))
	r.Use(middleware.MaxBodyBytes(1 << 20))
*/
package middleware
