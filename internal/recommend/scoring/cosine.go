// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package scoring

import (
	"math"
	"sort"
)

// FilterAbove returns the entries of v strictly greater than threshold.
func FilterAbove(v map[int64]float64, threshold float64) map[int64]float64 {
	out := make(map[int64]float64, len(v))
	for k, s := range v {
		if s > threshold {
			out[k] = s
		}
	}
	return out
}

// OverlapCosine computes the cosine similarity of a and b restricted to the
// keys present in both, and returns it with the number of shared keys.
// Keys are visited in ascending order so the float sums are reproducible.
func OverlapCosine(a, b map[int64]float64) (similarity float64, shared int) {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	keys := make([]int64, 0, len(small))
	for k := range small {
		if _, ok := large[k]; ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return 0, 0
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var dot, normA, normB float64
	for _, k := range keys {
		x, y := a[k], b[k]
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, len(keys)
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return Clamp(sim, 0, 1), len(keys)
}
