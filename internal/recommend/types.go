// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/affinity/internal/models"
)

// ErrInvalidStrategy is returned for an unknown strategy name.
var ErrInvalidStrategy = errors.New("invalid recommendation strategy")

// ErrInvalidID is returned when an account or publication id is not positive.
var ErrInvalidID = errors.New("id must be a positive integer")

// Strategy names a recommendation strategy.
type Strategy string

const (
	// StrategyContent ranks publications by the account's topic affinities.
	StrategyContent Strategy = "content"
	// StrategyCollaborative ranks what similar accounts liked or saved.
	StrategyCollaborative Strategy = "collaborative"
	// StrategyHybrid merges content results with collaborative ones.
	StrategyHybrid Strategy = "hybrid"
	// StrategyPopularity ranks recently published publications by engagement.
	StrategyPopularity Strategy = "popularity"
	// StrategyHybridWithFallback is hybrid topped up with popular publications.
	StrategyHybridWithFallback Strategy = "hybridWithFallback"
)

// DefaultStrategy is used when a request names none.
const DefaultStrategy = StrategyHybridWithFallback

// AllStrategies lists every supported strategy.
var AllStrategies = []Strategy{
	StrategyContent,
	StrategyCollaborative,
	StrategyHybrid,
	StrategyPopularity,
	StrategyHybridWithFallback,
}

// ParseStrategy resolves a strategy name case-insensitively. An empty name
// selects DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultStrategy, nil
	}
	for _, strategy := range AllStrategies {
		if strings.EqualFold(s, string(strategy)) {
			return strategy, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// Valid reports whether s names a supported strategy.
func (s Strategy) Valid() bool {
	for _, strategy := range AllStrategies {
		if s == strategy {
			return true
		}
	}
	return false
}

// Personalized reports whether the strategy reads per-account state and is
// therefore subject to the read timeout and circuit breaker.
func (s Strategy) Personalized() bool {
	return s != StrategyPopularity
}

// Result is the answer to a recommendation request.
type Result struct {
	// Requested is the strategy the caller asked for.
	Requested Strategy
	// Served is the strategy that produced PublicationIDs.
	Served Strategy
	// FallbackReason is set when Served differs from Requested.
	FallbackReason string
	PublicationIDs []int64
	Limit          int
	Offset         int
}

// Fallback reports whether the popularity fallback answered the request.
func (r Result) Fallback() bool {
	return r.FallbackReason != ""
}

// WriteStore persists interactions and the publication catalog.
type WriteStore interface {
	// InsertInteraction reports false when the write was a no-op, such as a
	// repeated SAVE.
	InsertInteraction(ctx context.Context, in models.Interaction) (bool, error)
	DeleteSaves(ctx context.Context, accountID, publicationID int64) (int64, error)
	UpsertPublication(ctx context.Context, pub models.Publication) error
}

// CandidateStore answers the strategy queries. Every method excludes
// publications the account has viewed, liked or saved, and returns only
// PUBLISHED publications.
type CandidateStore interface {
	// ContentCandidates ranks publications by the summed affinity of the
	// account on their topics, over affinities above minAffinity.
	ContentCandidates(ctx context.Context, accountID int64, minAffinity float64, limit, offset int) ([]int64, error)

	// CollaborativeCandidates scores publications liked or saved since
	// interactedSince by neighbours whose similarity row is newer than
	// similarSince. Each neighbour contributes its similarity once per
	// publication. The top limit rows are returned, highest score first, plus
	// any rows tied with the last of them.
	CollaborativeCandidates(ctx context.Context, accountID int64, similarSince, interactedSince time.Time, limit int) ([]models.ScoredPublication, error)

	// PopularPublications ranks publications published since by distinct
	// likers plus distinct savers.
	PopularPublications(ctx context.Context, accountID int64, since time.Time, limit, offset int) ([]int64, error)
}

// SimilarUsersReader reads stored neighbours.
type SimilarUsersReader interface {
	SimilarUsers(ctx context.Context, accountID int64, limit int) ([]int64, error)
}

// Dispatcher hands affinity jobs to asynchronous workers. Implementations
// return once the job is queued.
type Dispatcher interface {
	DispatchRefresh(ctx context.Context, accountID, publicationID int64) error
	DispatchRebuild(ctx context.Context, accountID int64) error
}
