// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package similarity computes which accounts share strong topic interests.
//
// Only affinities above the strong interest threshold take part. A candidate
// needs at least MinSharedTopics overlapping topics and a cosine over that
// overlap above MinSimilarity. Rows are stored per requesting account, so
// A->B and B->A are independent and may differ.
package similarity
