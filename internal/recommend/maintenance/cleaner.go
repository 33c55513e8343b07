// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package maintenance removes derived rows that have outlived their retention.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinity/internal/metrics"
)

// Store deletes aged rows. Both methods compare against an absolute cutoff
// so a row written after the cutoff was taken is never eligible.
type Store interface {
	DeleteAffinitiesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteSimilaritiesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the retention windows.
type Config struct {
	AffinityRetention   time.Duration
	SimilarityRetention time.Duration
}

// DefaultConfig returns 180 days for affinities and 14 days for similarities.
func DefaultConfig() Config {
	return Config{
		AffinityRetention:   180 * 24 * time.Hour,
		SimilarityRetention: 14 * 24 * time.Hour,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.AffinityRetention <= 0 {
		return fmt.Errorf("affinity retention must be positive, got %v", c.AffinityRetention)
	}
	if c.SimilarityRetention <= 0 {
		return fmt.Errorf("similarity retention must be positive, got %v", c.SimilarityRetention)
	}
	return nil
}

// Result reports a cleanup run.
type Result struct {
	Snapshot            time.Time
	AffinitiesDeleted   int64
	SimilaritiesDeleted int64
}

// Cleaner runs retention cleanup.
type Cleaner struct {
	store  Store
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

// NewCleaner creates a cleaner.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCleaner(store Store, cfg Config, logger zerolog.Logger) (*Cleaner, error) {
	if store == nil {
		return nil, errors.New("maintenance store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid maintenance config: %w", err)
	}
	return &Cleaner{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "maintenance").Logger(),
		now:    time.Now,
	}, nil
}

// SetClock replaces the time source. Intended for tests.
func (c *Cleaner) SetClock(now func() time.Time) {
	c.now = now
}

// CleanupOldAffinityData deletes affinities not updated within the retention.
func (c *Cleaner) CleanupOldAffinityData(ctx context.Context) (int64, error) {
	return c.cleanupAffinities(ctx, c.now())
}

// CleanupOldSimilarityData deletes similarities not recalculated within the
// retention.
func (c *Cleaner) CleanupOldSimilarityData(ctx context.Context) (int64, error) {
	return c.cleanupSimilarities(ctx, c.now())
}

// Run performs both cleanups against a single clock snapshot. A similarity
// failure does not undo or skip the affinity cleanup; both errors are joined.
func (c *Cleaner) Run(ctx context.Context) (Result, error) {
	snapshot := c.now()
	result := Result{Snapshot: snapshot}

	var errs []error
	n, err := c.cleanupAffinities(ctx, snapshot)
	if err != nil {
		errs = append(errs, err)
	}
	result.AffinitiesDeleted = n

	if err := ctx.Err(); err != nil {
		return result, errors.Join(append(errs, err)...)
	}

	n, err = c.cleanupSimilarities(ctx, snapshot)
	if err != nil {
		errs = append(errs, err)
	}
	result.SimilaritiesDeleted = n

	c.logger.Info().
		Int64("affinities_deleted", result.AffinitiesDeleted).
		Int64("similarities_deleted", result.SimilaritiesDeleted).
		Time("snapshot", snapshot).
		Msg("retention cleanup complete")
	return result, errors.Join(errs...)
}

func (c *Cleaner) cleanupAffinities(ctx context.Context, snapshot time.Time) (int64, error) {
	n, err := c.store.DeleteAffinitiesBefore(ctx, snapshot.Add(-c.cfg.AffinityRetention))
	if err != nil {
		return 0, fmt.Errorf("delete old affinities: %w", err)
	}
	metrics.RecordMaintenanceDeleted("topic_affinities", n)
	return n, nil
}

func (c *Cleaner) cleanupSimilarities(ctx context.Context, snapshot time.Time) (int64, error) {
	n, err := c.store.DeleteSimilaritiesBefore(ctx, snapshot.Add(-c.cfg.SimilarityRetention))
	if err != nil {
		return 0, fmt.Errorf("delete old similarities: %w", err)
	}
	metrics.RecordMaintenanceDeleted("user_similarities", n)
	return n, nil
}
