// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/affinity/internal/logging"
)

// DefaultSlowRequestThreshold is used when SlowRequests gets a non-positive
// threshold.
const DefaultSlowRequestThreshold = time.Second

// SlowRequests logs a warning, with request and correlation ids, for every
// request slower than threshold.
func SlowRequests(threshold time.Duration) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowRequestThreshold
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			if duration <= threshold {
				return
			}
			logging.CtxWarn(r.Context()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", statusOf(ww)).
				Int64("duration_ms", duration.Milliseconds()).
				Int64("threshold_ms", threshold.Milliseconds()).
				Msg("Slow request detected")
		})
	}
}
