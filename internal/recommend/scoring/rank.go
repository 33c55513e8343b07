// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package scoring

import (
	"math"
	"math/rand"
	"sort"

	"github.com/tomtom215/affinity/internal/models"
)

// HybridSplit returns how many content-based and collaborative results a hybrid
// request of size limit asks for: ceil(limit*contentRatio) content results and
// the remainder plus buffer collaborative results.
func HybridSplit(limit int, contentRatio float64, buffer int) (contentLimit, collaborativeLimit int) {
	if limit <= 0 {
		return 0, 0
	}
	contentRatio = Clamp(contentRatio, 0, 1)
	contentLimit = int(math.Ceil(float64(limit) * contentRatio))
	if contentLimit > limit {
		contentLimit = limit
	}
	if buffer < 0 {
		buffer = 0
	}
	collaborativeLimit = limit - contentLimit + buffer
	return contentLimit, collaborativeLimit
}

// MergeUnique concatenates the lists in priority order, dropping duplicates and
// stopping once limit ids are collected. limit <= 0 means no limit.
func MergeUnique(limit int, lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	merged := make([]int64, 0, limit)
	for _, list := range lists {
		for _, id := range list {
			if limit > 0 && len(merged) >= limit {
				return merged
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}

// RankWithTieBreak orders candidates by score descending. Candidates with equal
// scores are ordered by rng, so repeated calls diversify the output while a
// seeded rng keeps it reproducible. The input slice is reordered in place.
func RankWithTieBreak(candidates []models.ScoredPublication, rng *rand.Rand) []models.ScoredPublication {
	if rng != nil {
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// PublicationIDs extracts the ids of ranked candidates.
func PublicationIDs(candidates []models.ScoredPublication) []int64 {
	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.PublicationID
	}
	return ids
}

// Paginate returns items[offset:offset+limit], clipped to the slice bounds.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// PageLimits bounds caller supplied paging values.
type PageLimits struct {
	DefaultLimit int
	MaxLimit     int
	MaxOffset    int
}

// ClampPage clamps limit and offset into range instead of rejecting them.
// A non-positive limit becomes DefaultLimit.
func ClampPage(limit, offset int, p PageLimits) (int, int) {
	if limit <= 0 {
		limit = p.DefaultLimit
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	if limit < 1 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}
	if p.MaxOffset >= 0 && offset > p.MaxOffset {
		offset = p.MaxOffset
	}
	return limit, offset
}
