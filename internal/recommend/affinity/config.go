// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package affinity

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/affinity/internal/recommend/scoring"
)

// Config holds the affinity calculation parameters.
type Config struct {
	// Weights per interaction type.
	Weights scoring.Weights

	// DecayHours is the exponential decay time constant.
	DecayHours float64

	// Lookback bounds which interactions are read at all.
	Lookback time.Duration

	// MaxScore caps a normalized topic score.
	MaxScore float64

	// MaxTopics caps how many topics one account keeps.
	MaxTopics int

	// NoiseFloor is compared against a topic's raw decayed sum.
	NoiseFloor float64

	// IncrementalPrune applies NoiseFloor and MaxTopics on incremental
	// updates as well as on full rebuilds.
	IncrementalPrune bool

	// BatchRate limits RebuildAll to this many accounts per second.
	// Zero disables throttling.
	BatchRate  float64
	BatchBurst int
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		Weights:          scoring.DefaultWeights(),
		DecayHours:       scoring.DefaultDecayHours,
		Lookback:         90 * 24 * time.Hour,
		MaxScore:         10.0,
		MaxTopics:        50,
		NoiseFloor:       0.1,
		IncrementalPrune: true,
		BatchRate:        0,
		BatchBurst:       1,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.DecayHours <= 0 {
		return fmt.Errorf("decay hours must be positive, got %v", c.DecayHours)
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("lookback must be positive, got %v", c.Lookback)
	}
	if c.MaxScore <= 0 {
		return fmt.Errorf("max score must be positive, got %v", c.MaxScore)
	}
	if c.MaxTopics < 1 {
		return fmt.Errorf("max topics must be at least 1, got %d", c.MaxTopics)
	}
	if c.NoiseFloor < 0 {
		return fmt.Errorf("noise floor must be non-negative, got %v", c.NoiseFloor)
	}
	if c.Weights.Like < 0 || c.Weights.Save < 0 || c.Weights.View < 0 {
		return errors.New("interaction weights must be non-negative")
	}
	if c.BatchRate < 0 {
		return fmt.Errorf("batch rate must be non-negative, got %v", c.BatchRate)
	}
	if c.BatchRate > 0 && c.BatchBurst < 1 {
		return fmt.Errorf("batch burst must be at least 1 when throttled, got %d", c.BatchBurst)
	}
	return nil
}
