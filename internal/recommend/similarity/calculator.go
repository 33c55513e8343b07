// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package similarity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/affinity/internal/metrics"
	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend/scoring"
)

// Store is the persistence the similarity calculator needs.
type Store interface {
	// StrongAffinities returns topic -> score for the account's affinities
	// with score strictly above threshold.
	StrongAffinities(ctx context.Context, accountID int64, threshold float64) (map[int64]float64, error)

	// CandidateAffinities returns, for every other account holding an
	// affinity above threshold on one of topicIDs, its scores on those topics.
	CandidateAffinities(ctx context.Context, accountID int64, topicIDs []int64, threshold float64) (map[int64]map[int64]float64, error)

	// ReplaceSimilarities atomically swaps all rows of accountID for rows.
	ReplaceSimilarities(ctx context.Context, accountID int64, rows []models.UserSimilarity) error

	// AccountsWithAffinityAbove lists accounts with at least one affinity
	// above threshold.
	AccountsWithAffinityAbove(ctx context.Context, threshold float64) ([]int64, error)

	// SimilarAccounts returns other-account ids calculated at or after since,
	// ordered by score descending then id ascending.
	SimilarAccounts(ctx context.Context, accountID int64, since time.Time, limit int) ([]int64, error)
}

// Config holds the similarity parameters.
type Config struct {
	StrongInterestThreshold float64
	MinSharedTopics         int
	MinSimilarity           float64
	MaxSimilarUsers         int

	// Freshness bounds how old a stored similarity may be when read.
	Freshness time.Duration

	// BatchRate limits CalculateAll to this many accounts per second.
	// Zero disables throttling.
	BatchRate  float64
	BatchBurst int
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		StrongInterestThreshold: 0.5,
		MinSharedTopics:         2,
		MinSimilarity:           0.1,
		MaxSimilarUsers:         50,
		Freshness:               7 * 24 * time.Hour,
		BatchRate:               0,
		BatchBurst:              1,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.StrongInterestThreshold < 0 {
		return fmt.Errorf("strong interest threshold must be non-negative, got %v", c.StrongInterestThreshold)
	}
	if c.MinSharedTopics < 1 {
		return fmt.Errorf("min shared topics must be at least 1, got %d", c.MinSharedTopics)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity >= 1 {
		return fmt.Errorf("min similarity must be in [0, 1), got %v", c.MinSimilarity)
	}
	if c.MaxSimilarUsers < 1 {
		return fmt.Errorf("max similar users must be at least 1, got %d", c.MaxSimilarUsers)
	}
	if c.Freshness <= 0 {
		return errors.New("freshness must be positive")
	}
	if c.BatchRate < 0 {
		return fmt.Errorf("batch rate must be non-negative, got %v", c.BatchRate)
	}
	if c.BatchRate > 0 && c.BatchBurst < 1 {
		return fmt.Errorf("batch burst must be at least 1 when throttled, got %d", c.BatchBurst)
	}
	return nil
}

// BatchResult summarises a CalculateAll run.
type BatchResult struct {
	Accounts  int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Calculator computes directional account-to-account similarity.
type Calculator struct {
	store   Store
	cfg     Config
	logger  zerolog.Logger
	now     func() time.Time
	limiter *rate.Limiter
}

// NewCalculator creates a similarity calculator.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCalculator(store Store, cfg Config, logger zerolog.Logger) (*Calculator, error) {
	if store == nil {
		return nil, errors.New("similarity store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid similarity config: %w", err)
	}
	c := &Calculator{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "similarity").Logger(),
		now:    time.Now,
	}
	if cfg.BatchRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.BatchRate), cfg.BatchBurst)
	}
	return c, nil
}

// SetClock replaces the time source. Intended for tests.
func (c *Calculator) SetClock(now func() time.Time) {
	c.now = now
}

// Calculate recomputes the similar accounts of one account and replaces its
// stored set with the top MaxSimilarUsers of them, so neighbours that no
// longer qualify are removed. It returns the number of rows written.
func (c *Calculator) Calculate(ctx context.Context, accountID int64) (stored int, err error) {
	defer func() {
		metrics.RecordSimilarityCalculation(stored, err)
	}()

	target, err := c.store.StrongAffinities(ctx, accountID, c.cfg.StrongInterestThreshold)
	if err != nil {
		return 0, fmt.Errorf("load affinities for account %d: %w", accountID, err)
	}
	if len(target) == 0 {
		if err := c.store.ReplaceSimilarities(ctx, accountID, nil); err != nil {
			return 0, fmt.Errorf("clear similarities for account %d: %w", accountID, err)
		}
		return 0, nil
	}

	topics := make([]int64, 0, len(target))
	for topicID := range target {
		topics = append(topics, topicID)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })

	candidates, err := c.store.CandidateAffinities(ctx, accountID, topics, c.cfg.StrongInterestThreshold)
	if err != nil {
		return 0, fmt.Errorf("load candidates for account %d: %w", accountID, err)
	}

	now := c.now()
	rows := make([]models.UserSimilarity, 0, len(candidates))
	for otherID, vector := range candidates {
		if otherID == accountID {
			continue
		}
		sim, shared := scoring.OverlapCosine(target, vector)
		if shared < c.cfg.MinSharedTopics || sim <= c.cfg.MinSimilarity {
			continue
		}
		rows = append(rows, models.UserSimilarity{
			AccountID:      accountID,
			OtherAccountID: otherID,
			Score:          sim,
			CalculatedAt:   now,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].OtherAccountID < rows[j].OtherAccountID
	})
	if len(rows) > c.cfg.MaxSimilarUsers {
		rows = rows[:c.cfg.MaxSimilarUsers]
	}
	if err := c.store.ReplaceSimilarities(ctx, accountID, rows); err != nil {
		return 0, fmt.Errorf("store similarities for account %d: %w", accountID, err)
	}

	c.logger.Debug().
		Int64("account_id", accountID).
		Int("candidates", len(candidates)).
		Int("stored", len(rows)).
		Msg("calculated similar accounts")
	return len(rows), nil
}

// CalculateAll runs Calculate for every account with a qualifying affinity.
// Per-account failures are logged and counted; only cancellation of ctx stops
// the batch early.
func (c *Calculator) CalculateAll(ctx context.Context) (result BatchResult, err error) {
	start := time.Now()

	accounts, err := c.store.AccountsWithAffinityAbove(ctx, c.cfg.StrongInterestThreshold)
	if err != nil {
		return result, fmt.Errorf("list accounts with affinities: %w", err)
	}
	result.Accounts = len(accounts)

	defer func() {
		result.Duration = time.Since(start)
		metrics.RecordBatch("similarity", result.Succeeded, result.Failed, result.Duration)
	}()

	for _, accountID := range accounts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		if _, err := c.Calculate(ctx, accountID); err != nil {
			result.Failed++
			c.logger.Warn().Err(err).Int64("account_id", accountID).Msg("similarity calculation failed")
			continue
		}
		result.Succeeded++
	}

	c.logger.Info().
		Int("accounts", result.Accounts).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("duration", time.Since(start)).
		Msg("similarity batch complete")
	return result, nil
}

// SimilarUsers returns up to limit fresh neighbours of an account, most
// similar first.
func (c *Calculator) SimilarUsers(ctx context.Context, accountID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}
	ids, err := c.store.SimilarAccounts(ctx, accountID, c.now().Add(-c.cfg.Freshness), limit)
	if err != nil {
		return nil, fmt.Errorf("load similar accounts for %d: %w", accountID, err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
