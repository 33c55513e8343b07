// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package scoring

import (
	"math"
	"time"

	"github.com/tomtom215/affinity/internal/models"
)

// DefaultDecayHours is the decay time constant of an interaction (one week).
const DefaultDecayHours = 168.0

// Weights holds the per-type multiplier applied to an interaction.
// Likes are the strongest signal, views the weakest.
type Weights struct {
	Like float64 `koanf:"like"`
	Save float64 `koanf:"save"`
	View float64 `koanf:"view"`
}

// DefaultWeights returns the reference weights.
func DefaultWeights() Weights {
	return Weights{
		Like: 3.0,
		Save: 2.0,
		View: 1.0,
	}
}

// For returns the weight of an interaction type. Unknown types weigh zero.
func (w Weights) For(t models.InteractionType) float64 {
	switch t {
	case models.InteractionLike:
		return w.Like
	case models.InteractionSave:
		return w.Save
	case models.InteractionView:
		return w.View
	default:
		return 0
	}
}

// DecayFactor returns exp(-hoursSince/decayHours).
// Interactions from the future (clock skew) count as happening now.
func DecayFactor(hoursSince, decayHours float64) float64 {
	if decayHours <= 0 || math.IsNaN(hoursSince) {
		return 0
	}
	if hoursSince < 0 {
		hoursSince = 0
	}
	return math.Exp(-hoursSince / decayHours)
}

// WeightedContribution is the decayed weight of one interaction at time now.
func WeightedContribution(w Weights, t models.InteractionType, at, now time.Time, decayHours float64) float64 {
	weight := w.For(t)
	if weight <= 0 {
		return 0
	}
	return weight * DecayFactor(now.Sub(at).Hours(), decayHours)
}
