// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package affinity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/affinity/internal/metrics"
	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend/scoring"
)

// Store is the persistence the calculator needs. It is implemented by the
// database package.
type Store interface {
	// AccountTopicInteractions returns one row per interaction x topic for the
	// account, restricted to interactions created at or after since.
	AccountTopicInteractions(ctx context.Context, accountID int64, since time.Time) ([]models.TopicInteraction, error)

	// AccountTopicInteractionsForTopics is AccountTopicInteractions restricted
	// to the given topics.
	AccountTopicInteractionsForTopics(ctx context.Context, accountID int64, topicIDs []int64, since time.Time) ([]models.TopicInteraction, error)

	// PublicationTopics returns the topics mapped to a publication.
	PublicationTopics(ctx context.Context, publicationID int64) ([]int64, error)

	// ReplaceTopicAffinities atomically replaces every affinity row of the account.
	ReplaceTopicAffinities(ctx context.Context, accountID int64, rows []models.TopicAffinity) error

	// ApplyTopicAffinityChanges upserts and removes rows of one account in a
	// single transaction. When maxTopics > 0 the account is trimmed to its
	// maxTopics highest scores afterwards.
	ApplyTopicAffinityChanges(ctx context.Context, accountID int64, upserts []models.TopicAffinity, removals []int64, maxTopics int) error

	// AccountsWithInteractionsSince lists accounts with at least one
	// interaction at or after since.
	AccountsWithInteractionsSince(ctx context.Context, since time.Time) ([]int64, error)
}

// Cache refreshes stored affinity scores. Refresh recomputes one
// (account, topic) key and Rebuild recomputes every key of an account.
type Cache interface {
	Refresh(ctx context.Context, accountID, topicID int64) error
	Rebuild(ctx context.Context, accountID int64) error
}

// BatchResult summarises a RebuildAll run.
type BatchResult struct {
	Accounts  int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Calculator maintains the topic affinity vectors. It is safe for concurrent
// use; writers for the same account are serialized.
type Calculator struct {
	store   Store
	cfg     Config
	logger  zerolog.Logger
	now     func() time.Time
	limiter *rate.Limiter

	locks accountLocks
}

// Compile-time check that Calculator satisfies Cache.
var _ Cache = (*Calculator)(nil)

// NewCalculator creates an affinity calculator.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCalculator(store Store, cfg Config, logger zerolog.Logger) (*Calculator, error) {
	if store == nil {
		return nil, fmt.Errorf("affinity store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid affinity config: %w", err)
	}

	c := &Calculator{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "affinity").Logger(),
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

// Config returns the active configuration.
func (c *Calculator) Config() Config {
	return c.cfg
}

// Rebuild recomputes the complete affinity vector of an account from its
// interactions in the lookback window and replaces the stored rows atomically.
func (c *Calculator) Rebuild(ctx context.Context, accountID int64) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAffinityRecalculation("full", time.Since(start), err)
	}()

	unlock := c.locks.lock(accountID)
	defer unlock()

	now := c.now()
	rows, err := c.store.AccountTopicInteractions(ctx, accountID, now.Add(-c.cfg.Lookback))
	if err != nil {
		return fmt.Errorf("load interactions for account %d: %w", accountID, err)
	}

	acc := scoring.AccumulateTopics(rows, c.cfg.Weights, c.cfg.DecayHours, now)
	selected := scoring.SelectTopTopics(scoring.TopicScores(acc, c.cfg.MaxScore), c.cfg.NoiseFloor, c.cfg.MaxTopics)

	affinities := make([]models.TopicAffinity, 0, len(selected))
	for _, s := range selected {
		affinities = append(affinities, models.TopicAffinity{
			AccountID:   accountID,
			TopicID:     s.TopicID,
			Score:       s.Score,
			LastUpdated: now,
		})
	}

	if err := c.store.ReplaceTopicAffinities(ctx, accountID, affinities); err != nil {
		return fmt.Errorf("replace affinities for account %d: %w", accountID, err)
	}
	metrics.AffinityTopicsStored.Observe(float64(len(affinities)))

	c.logger.Debug().
		Int64("account_id", accountID).
		Int("interactions", len(rows)).
		Int("topics", len(affinities)).
		Msg("rebuilt affinity vector")
	return nil
}

// Refresh recomputes a single (account, topic) affinity.
func (c *Calculator) Refresh(ctx context.Context, accountID, topicID int64) error {
	return c.refreshTopics(ctx, accountID, []int64{topicID})
}

// Update recomputes every topic of a publication for an account. It is the
// incremental path run after an interaction is recorded or a save removed.
func (c *Calculator) Update(ctx context.Context, accountID, publicationID int64) error {
	topics, err := c.store.PublicationTopics(ctx, publicationID)
	if err != nil {
		err = fmt.Errorf("load topics for publication %d: %w", publicationID, err)
		metrics.RecordAffinityRecalculation("incremental", 0, err)
		return err
	}
	if len(topics) == 0 {
		return nil
	}
	return c.refreshTopics(ctx, accountID, topics)
}

func (c *Calculator) refreshTopics(ctx context.Context, accountID int64, topicIDs []int64) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAffinityRecalculation("incremental", time.Since(start), err)
	}()

	topicIDs = uniqueSorted(topicIDs)

	unlock := c.locks.lock(accountID)
	defer unlock()

	now := c.now()
	rows, err := c.store.AccountTopicInteractionsForTopics(ctx, accountID, topicIDs, now.Add(-c.cfg.Lookback))
	if err != nil {
		return fmt.Errorf("load topic interactions for account %d: %w", accountID, err)
	}
	acc := scoring.AccumulateTopics(rows, c.cfg.Weights, c.cfg.DecayHours, now)

	upserts := make([]models.TopicAffinity, 0, len(topicIDs))
	var removals []int64
	for _, topicID := range topicIDs {
		a := acc[topicID]
		if c.cfg.IncrementalPrune && a.Sum <= c.cfg.NoiseFloor {
			removals = append(removals, topicID)
			continue
		}
		upserts = append(upserts, models.TopicAffinity{
			AccountID:   accountID,
			TopicID:     topicID,
			Score:       scoring.NormalizeTopicScore(a.Sum, a.Count, c.cfg.MaxScore),
			LastUpdated: now,
		})
	}

	maxTopics := 0
	if c.cfg.IncrementalPrune {
		maxTopics = c.cfg.MaxTopics
	}
	if err := c.store.ApplyTopicAffinityChanges(ctx, accountID, upserts, removals, maxTopics); err != nil {
		return fmt.Errorf("apply affinity changes for account %d: %w", accountID, err)
	}

	c.logger.Debug().
		Int64("account_id", accountID).
		Int("upserted", len(upserts)).
		Int("removed", len(removals)).
		Msg("refreshed topic affinities")
	return nil
}

// RebuildAll rebuilds every account with an interaction inside the lookback
// window. Per-account failures are logged and counted. The batch stops early
// only when ctx is cancelled.
func (c *Calculator) RebuildAll(ctx context.Context) (result BatchResult, err error) {
	start := time.Now()

	accounts, err := c.store.AccountsWithInteractionsSince(ctx, c.now().Add(-c.cfg.Lookback))
	if err != nil {
		return result, fmt.Errorf("list active accounts: %w", err)
	}
	result.Accounts = len(accounts)

	defer func() {
		result.Duration = time.Since(start)
		metrics.RecordBatch("affinity", result.Succeeded, result.Failed, result.Duration)
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

		if err := c.Rebuild(ctx, accountID); err != nil {
			result.Failed++
			c.logger.Warn().Err(err).Int64("account_id", accountID).Msg("affinity rebuild failed")
			continue
		}
		result.Succeeded++
	}

	c.logger.Info().
		Int("accounts", result.Accounts).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("duration", time.Since(start)).
		Msg("affinity batch rebuild complete")
	return result, nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
