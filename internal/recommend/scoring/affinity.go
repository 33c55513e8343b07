// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/affinity/internal/models"
)

// TopicAccumulator collects the decayed contributions of one topic.
type TopicAccumulator struct {
	Sum   float64
	Count int
}

// TopicScore is the normalized score of one topic together with the raw sum
// the noise floor is applied to.
type TopicScore struct {
	TopicID int64
	Score   float64
	RawSum  float64
}

// AccumulateTopics sums decayed contributions per topic.
// Rows with a zero topic id (dangling mapping) are skipped.
func AccumulateTopics(rows []models.TopicInteraction, w Weights, decayHours float64, now time.Time) map[int64]TopicAccumulator {
	acc := make(map[int64]TopicAccumulator)
	for _, row := range rows {
		if row.TopicID == 0 {
			continue
		}
		contribution := WeightedContribution(w, row.Type, row.CreatedAt, now, decayHours)
		if math.IsNaN(contribution) || math.IsInf(contribution, 0) {
			contribution = 0
		}
		a := acc[row.TopicID]
		a.Sum += contribution
		a.Count++
		acc[row.TopicID] = a
	}
	return acc
}

// NormalizeTopicScore divides the summed weight by ln(count+1) and clamps the
// result to [0, maxScore]. Dividing by the log of the count keeps a topic from
// dominating purely on volume.
func NormalizeTopicScore(sum float64, count int, maxScore float64) float64 {
	if count <= 0 || sum <= 0 || math.IsNaN(sum) {
		return 0
	}
	score := sum / math.Log(float64(count)+1)
	return Clamp(score, 0, maxScore)
}

// TopicScores normalizes every accumulated topic. The result is ordered by
// score descending, then topic id ascending.
func TopicScores(acc map[int64]TopicAccumulator, maxScore float64) []TopicScore {
	scores := make([]TopicScore, 0, len(acc))
	for topicID, a := range acc {
		scores = append(scores, TopicScore{
			TopicID: topicID,
			Score:   NormalizeTopicScore(a.Sum, a.Count, maxScore),
			RawSum:  a.Sum,
		})
	}
	sortTopicScores(scores)
	return scores
}

// SelectTopTopics keeps topics whose raw sum exceeds noiseFloor and returns at
// most maxTopics of them, highest score first. maxTopics <= 0 means no cap.
func SelectTopTopics(scores []TopicScore, noiseFloor float64, maxTopics int) []TopicScore {
	kept := make([]TopicScore, 0, len(scores))
	for _, s := range scores {
		if s.RawSum > noiseFloor {
			kept = append(kept, s)
		}
	}
	sortTopicScores(kept)
	if maxTopics > 0 && len(kept) > maxTopics {
		kept = kept[:maxTopics]
	}
	return kept
}

func sortTopicScores(scores []TopicScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].TopicID < scores[j].TopicID
	})
}

// Clamp bounds v to [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
