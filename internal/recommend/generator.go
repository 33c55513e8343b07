// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/affinity/internal/recommend/scoring"
)

// Generator implements the recommendation strategies on top of a
// CandidateStore. It is safe for concurrent use.
type Generator struct {
	store CandidateStore
	cfg   *Config
	now   func() time.Time

	// Random source for tie-breaks (protected by rngMu for concurrent access)
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewGenerator creates a strategy generator.
func NewGenerator(store CandidateStore, cfg *Config) (*Generator, error) {
	if store == nil {
		return nil, fmt.Errorf("candidate store is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Generator{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for tie-break shuffling
	}, nil
}

// SetClock replaces the time source. Intended for tests.
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// SetRand replaces the tie-break random source.
func (g *Generator) SetRand(r *rand.Rand) {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	g.rng = r
}

// Content returns publications matching the account's strong topic
// affinities. Accounts without affinities get an empty list.
func (g *Generator) Content(ctx context.Context, accountID int64, limit, offset int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}
	ids, err := g.store.ContentCandidates(ctx, accountID, g.cfg.ContentMinAffinity, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("content candidates: %w", err)
	}
	return nonNil(ids), nil
}

// Collaborative returns what similar accounts recently liked or saved,
// ranked by summed neighbour similarity with a random tie-break.
func (g *Generator) Collaborative(ctx context.Context, accountID int64, limit, offset int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}
	now := g.now()

	pool := g.cfg.CollaborativePoolSize
	if need := offset + limit; need > pool {
		pool = need
	}

	candidates, err := g.store.CollaborativeCandidates(ctx, accountID,
		now.Add(-g.cfg.SimilarityFreshness),
		now.Add(-g.cfg.CollaborativeWindow),
		pool)
	if err != nil {
		return nil, fmt.Errorf("collaborative candidates: %w", err)
	}

	g.rngMu.Lock()
	ranked := scoring.RankWithTieBreak(candidates, g.rng)
	g.rngMu.Unlock()

	return scoring.Paginate(scoring.PublicationIDs(ranked), limit, offset), nil
}

// Popularity returns recently published publications ranked by distinct
// likers and savers.
func (g *Generator) Popularity(ctx context.Context, accountID int64, limit, offset int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}
	ids, err := g.store.PopularPublications(ctx, accountID, g.now().Add(-g.cfg.PopularityWindow), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("popular publications: %w", err)
	}
	return nonNil(ids), nil
}

// Hybrid fetches content and collaborative results concurrently and merges
// them, content first, without duplicates.
func (g *Generator) Hybrid(ctx context.Context, accountID int64, limit int) ([]int64, error) {
	contentLimit, collaborativeLimit := scoring.HybridSplit(limit, g.cfg.HybridContentRatio, g.cfg.HybridCollaborativeBuffer)
	if contentLimit == 0 && collaborativeLimit == 0 {
		return []int64{}, nil
	}

	var content, collaborative []int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		content, err = g.Content(egCtx, accountID, contentLimit, 0)
		return err
	})
	eg.Go(func() error {
		var err error
		collaborative, err = g.Collaborative(egCtx, accountID, collaborativeLimit, 0)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("hybrid: %w", err)
	}

	return scoring.MergeUnique(limit, content, collaborative), nil
}

// WithFallback runs Hybrid and tops the list up with popular publications
// when it comes back short.
func (g *Generator) WithFallback(ctx context.Context, accountID int64, limit int) ([]int64, error) {
	ids, err := g.Hybrid(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) >= limit {
		return ids, nil
	}

	needed := limit - len(ids)
	popular, err := g.Popularity(ctx, accountID, needed+g.cfg.FallbackBuffer, 0)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return scoring.MergeUnique(limit, ids, popular), nil
}

// Generate dispatches to the named strategy. Strategies without native
// offset support fetch limit+offset and slice.
func (g *Generator) Generate(ctx context.Context, strategy Strategy, accountID int64, limit, offset int) ([]int64, error) {
	switch strategy {
	case StrategyContent:
		return g.Content(ctx, accountID, limit, offset)
	case StrategyCollaborative:
		return g.Collaborative(ctx, accountID, limit, offset)
	case StrategyPopularity:
		return g.Popularity(ctx, accountID, limit, offset)
	case StrategyHybrid:
		ids, err := g.Hybrid(ctx, accountID, limit+offset)
		if err != nil {
			return nil, err
		}
		return scoring.Paginate(ids, limit, offset), nil
	case StrategyHybridWithFallback:
		ids, err := g.WithFallback(ctx, accountID, limit+offset)
		if err != nil {
			return nil, err
		}
		return scoring.Paginate(ids, limit, offset), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
