// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package scoring holds the numeric core of the engine as plain functions
// over retrieved records, with no storage dependency.
//
// # Affinity
//
// Each interaction contributes
//
//	weight(type) * exp(-hoursSince / decayHours)
//
// to every topic of its publication. Per topic the contributions are summed
// and divided by ln(count+1), then clamped to [0, maxScore]. Full rebuilds keep
// topics whose raw sum exceeds the noise floor and cap the vector at maxTopics.
//
// # Similarity
//
// OverlapCosine is a cosine restricted to the topics both vectors share. The
// inputs are expected to be pre-filtered to strong interests.
//
// # Ranking helpers
//
// HybridSplit, MergeUnique, RankWithTieBreak and ClampPage implement the list
// arithmetic used by the recommendation strategies.
package scoring
