// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package recommend serves publication recommendations from topic affinities
// and account similarity.
//
// # Architecture
//
// The engine is split into small packages:
//
//   - scoring: storage-free math (decay, normalization, cosine, list merging)
//   - affinity: per-account topic affinity vectors, full and incremental
//   - similarity: directional account-to-account similarity
//   - maintenance: retention cleanup of derived rows
//   - recommend (this package): strategies and the Engine facade
//
// # Strategies
//
//   - content: publications on topics the account scores above 0.5
//   - collaborative: what fresh neighbours liked or saved in the last 30 days
//   - hybrid: content and collaborative fetched concurrently, content first
//   - popularity: recent publications ranked by distinct likers and savers
//   - hybridWithFallback: hybrid topped up with popular publications
//
// Every strategy excludes publications the account already viewed, liked or
// saved and only returns PUBLISHED publications.
//
// # Degradation
//
// Personalized strategies run under a read timeout and behind a circuit
// breaker. An error, timeout or open breaker is answered with the popularity
// strategy; Result.FallbackReason records why.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.Dependencies{
//	    Writes:     db,
//	    Candidates: db,
//	    Similar:    similarityCalc,
//	    Dispatcher: dispatcher,
//	}, recommend.DefaultConfig(), logger)
//
//	result, err := engine.GetRecommendations(ctx, accountID, recommend.StrategyHybrid, 20, 0)
//
// # Thread Safety
//
// Engine and Generator are safe for concurrent use. The tie-break random
// source is guarded by a mutex.
package recommend
