// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// ContentMinAffinity is the affinity an account must exceed on a topic
	// for the topic to drive content recommendations.
	ContentMinAffinity float64

	// CollaborativeWindow bounds how recent a neighbour's like or save must be.
	CollaborativeWindow time.Duration

	// SimilarityFreshness bounds how old a similarity row may be.
	SimilarityFreshness time.Duration

	// CollaborativePoolSize is the minimum number of scored candidates
	// fetched before the random tie-break and paging.
	CollaborativePoolSize int

	// PopularityWindow bounds the publish date of popular publications.
	PopularityWindow time.Duration

	// HybridContentRatio is the share of a hybrid request served by content.
	HybridContentRatio float64

	// HybridCollaborativeBuffer is added to the collaborative request size
	// to absorb overlap with the content list.
	HybridCollaborativeBuffer int

	// FallbackBuffer is added to the popularity request size when topping up.
	FallbackBuffer int

	// Limits contains operational limits.
	Limits LimitsConfig

	// Breaker guards the personalized read path.
	Breaker BreakerConfig

	// Seed is the random seed for the collaborative tie-break.
	// If zero, a fixed default seed is used.
	Seed int64
}

// LimitsConfig bounds request sizes and latency.
type LimitsConfig struct {
	DefaultLimit int
	MaxLimit     int
	MaxOffset    int

	// ReadTimeout bounds a personalized strategy before falling back.
	ReadTimeout time.Duration
}

// BreakerConfig configures the circuit breaker around personalized reads.
type BreakerConfig struct {
	// MaxRequests allowed through in half-open state.
	MaxRequests uint32
	// Interval after which closed-state counts reset.
	Interval time.Duration
	// Timeout before an open breaker moves to half-open.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens it.
	FailureThreshold uint32
}

// DefaultConfig returns a configuration with the reference defaults.
func DefaultConfig() *Config {
	return &Config{
		ContentMinAffinity:        0.5,
		CollaborativeWindow:       30 * 24 * time.Hour,
		SimilarityFreshness:       7 * 24 * time.Hour,
		CollaborativePoolSize:     500,
		PopularityWindow:          30 * 24 * time.Hour,
		HybridContentRatio:        0.6,
		HybridCollaborativeBuffer: 5,
		FallbackBuffer:            5,
		Limits: LimitsConfig{
			DefaultLimit: 20,
			MaxLimit:     100,
			MaxOffset:    1000,
			ReadTimeout:  2 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.ContentMinAffinity < 0 {
		return fmt.Errorf("content min affinity must be non-negative, got %v", c.ContentMinAffinity)
	}
	if c.CollaborativeWindow <= 0 {
		return fmt.Errorf("collaborative window must be positive, got %v", c.CollaborativeWindow)
	}
	if c.SimilarityFreshness <= 0 {
		return fmt.Errorf("similarity freshness must be positive, got %v", c.SimilarityFreshness)
	}
	if c.CollaborativePoolSize < 1 {
		return fmt.Errorf("collaborative pool size must be at least 1, got %d", c.CollaborativePoolSize)
	}
	if c.PopularityWindow <= 0 {
		return fmt.Errorf("popularity window must be positive, got %v", c.PopularityWindow)
	}
	if c.HybridContentRatio < 0 || c.HybridContentRatio > 1 {
		return fmt.Errorf("hybrid content ratio must be in [0, 1], got %v", c.HybridContentRatio)
	}
	if c.HybridCollaborativeBuffer < 0 {
		return fmt.Errorf("hybrid collaborative buffer must be non-negative, got %d", c.HybridCollaborativeBuffer)
	}
	if c.FallbackBuffer < 0 {
		return fmt.Errorf("fallback buffer must be non-negative, got %d", c.FallbackBuffer)
	}
	if err := c.Limits.validate(); err != nil {
		return err
	}
	return c.Breaker.validate()
}

func (l LimitsConfig) validate() error {
	if l.MaxLimit < 1 {
		return fmt.Errorf("max limit must be at least 1, got %d", l.MaxLimit)
	}
	if l.DefaultLimit < 1 || l.DefaultLimit > l.MaxLimit {
		return fmt.Errorf("default limit must be in [1, %d], got %d", l.MaxLimit, l.DefaultLimit)
	}
	if l.MaxOffset < 0 {
		return fmt.Errorf("max offset must be non-negative, got %d", l.MaxOffset)
	}
	if l.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", l.ReadTimeout)
	}
	return nil
}

func (b BreakerConfig) validate() error {
	if b.FailureThreshold < 1 {
		return fmt.Errorf("breaker failure threshold must be at least 1, got %d", b.FailureThreshold)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("breaker timeout must be positive, got %v", b.Timeout)
	}
	return nil
}
