// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/affinity/internal/metrics"
	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend/scoring"
)

// Fallback reasons reported in Result.FallbackReason and metrics.
const (
	FallbackReasonError       = "error"
	FallbackReasonTimeout     = "timeout"
	FallbackReasonBreakerOpen = "breaker_open"
)

// Dependencies are the collaborators an Engine is built from.
type Dependencies struct {
	Writes     WriteStore
	Candidates CandidateStore
	Similar    SimilarUsersReader
	Dispatcher Dispatcher
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Requests  int64  `json:"requests"`
	Fallbacks int64  `json:"fallbacks"`
	Errors    int64  `json:"errors"`
	Breaker   string `json:"breaker_state"`
}

// Engine is the facade the HTTP layer talks to. It records interactions,
// hands affinity jobs to the dispatcher and serves recommendations. It is safe
// for concurrent use.
type Engine struct {
	config    *Config
	logger    zerolog.Logger
	writes    WriteStore
	generator *Generator
	similar   SimilarUsersReader
	dispatch  Dispatcher
	breaker   *gobreaker.CircuitBreaker[[]int64]
	now       func() time.Time

	requestCount  atomic.Int64
	fallbackCount atomic.Int64
	errorCount    atomic.Int64
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(deps Dependencies, cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Writes == nil || deps.Candidates == nil || deps.Similar == nil || deps.Dispatcher == nil {
		return nil, errors.New("engine dependencies are incomplete")
	}

	generator, err := NewGenerator(deps.Candidates, cfg)
	if err != nil {
		return nil, err
	}

	log := logger.With().Str("component", "recommend").Logger()
	return &Engine{
		config:    cfg,
		logger:    log,
		writes:    deps.Writes,
		generator: generator,
		similar:   deps.Similar,
		dispatch:  deps.Dispatcher,
		breaker:   newReadBreaker(cfg.Breaker, log),
		now:       time.Now,
	}, nil
}

// SetClock replaces the time source of the engine and its generator.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
	e.generator.SetClock(now)
}

// SetRand replaces the collaborative tie-break random source.
func (e *Engine) SetRand(r *rand.Rand) {
	e.generator.SetRand(r)
}

// Generator exposes the underlying strategy generator.
func (e *Engine) Generator() *Generator {
	return e.generator
}

// RecordInteraction appends an interaction to the log and dispatches an
// incremental affinity refresh. A repeated SAVE changes nothing and dispatches
// nothing. Dispatch failures are logged, not returned: the interaction is
// durable and the next rebuild will pick it up.
func (e *Engine) RecordInteraction(ctx context.Context, accountID, publicationID int64, t models.InteractionType) error {
	if accountID <= 0 || publicationID <= 0 {
		return ErrInvalidID
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidInteractionType, string(t))
	}

	in := models.Interaction{
		AccountID:     accountID,
		PublicationID: publicationID,
		Type:          t,
		CreatedAt:     e.now(),
	}
	inserted, err := e.writes.InsertInteraction(ctx, in)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}

	if inserted {
		e.dispatchRefresh(ctx, accountID, publicationID)
	}
	return nil
}

// RemoveSave deletes the account's SAVE of a publication and dispatches a
// refresh when something was removed.
func (e *Engine) RemoveSave(ctx context.Context, accountID, publicationID int64) error {
	if accountID <= 0 || publicationID <= 0 {
		return ErrInvalidID
	}

	n, err := e.writes.DeleteSaves(ctx, accountID, publicationID)
	if err != nil {
		return fmt.Errorf("remove save: %w", err)
	}
	if n > 0 {
		e.dispatchRefresh(ctx, accountID, publicationID)
	}
	return nil
}

func (e *Engine) dispatchRefresh(ctx context.Context, accountID, publicationID int64) {
	if err := e.dispatch.DispatchRefresh(ctx, accountID, publicationID); err != nil {
		e.logger.Warn().Err(err).
			Int64("account_id", accountID).
			Int64("publication_id", publicationID).
			Msg("failed to dispatch affinity refresh")
	}
}

// RecalculateAffinities queues a full affinity rebuild for the account and
// returns as soon as the job is accepted.
func (e *Engine) RecalculateAffinities(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return ErrInvalidID
	}
	if err := e.dispatch.DispatchRebuild(ctx, accountID); err != nil {
		return fmt.Errorf("dispatch rebuild: %w", err)
	}
	return nil
}

// UpsertPublication feeds a catalog entry: status, publish date and topics.
func (e *Engine) UpsertPublication(ctx context.Context, pub models.Publication) error {
	if pub.ID <= 0 {
		return ErrInvalidID
	}
	if !pub.Status.Valid() {
		return fmt.Errorf("invalid publication status %q", string(pub.Status))
	}
	for _, topicID := range pub.TopicIDs {
		if topicID <= 0 {
			return fmt.Errorf("topic %w", ErrInvalidID)
		}
	}
	if err := e.writes.UpsertPublication(ctx, pub); err != nil {
		return fmt.Errorf("upsert publication: %w", err)
	}
	return nil
}

// GetSimilarUsers returns the account's most similar accounts.
func (e *Engine) GetSimilarUsers(ctx context.Context, accountID int64, limit int) ([]int64, error) {
	if accountID <= 0 {
		return nil, ErrInvalidID
	}
	limit, _ = scoring.ClampPage(limit, 0, e.pageLimits())
	ids, err := e.similar.SimilarUsers(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("similar users: %w", err)
	}
	return ids, nil
}

// GetRecommendations serves a recommendation request. Limit and offset are
// clamped into range. Personalized strategies run under the read timeout and
// behind the circuit breaker; an error, timeout or open breaker degrades to
// the popularity strategy.
func (e *Engine) GetRecommendations(ctx context.Context, accountID int64, strategy Strategy, limit, offset int) (Result, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if accountID <= 0 {
		return Result{}, ErrInvalidID
	}
	if strategy == "" {
		strategy = DefaultStrategy
	}
	if !strategy.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidStrategy, string(strategy))
	}
	limit, offset = scoring.ClampPage(limit, offset, e.pageLimits())

	result := Result{
		Requested: strategy,
		Served:    strategy,
		Limit:     limit,
		Offset:    offset,
	}

	logger := e.logger.With().
		Int64("account_id", accountID).
		Str("strategy", string(strategy)).
		Logger()

	var ids []int64
	var err error
	if strategy.Personalized() {
		ids, err = e.personalized(ctx, strategy, accountID, limit, offset)
		if err != nil {
			if ctx.Err() != nil {
				e.errorCount.Add(1)
				return Result{}, ctx.Err()
			}
			reason := fallbackReason(err)
			logger.Warn().Err(err).Str("reason", reason).Msg("personalized strategy failed, serving popularity")
			metrics.RecordRecommendationFallback(string(strategy), reason)
			e.fallbackCount.Add(1)

			result.Served = StrategyPopularity
			result.FallbackReason = reason
			ids, err = e.generator.Popularity(ctx, accountID, limit, offset)
		}
	} else {
		ids, err = e.generator.Popularity(ctx, accountID, limit, offset)
	}

	if err != nil {
		e.errorCount.Add(1)
		return Result{}, err
	}

	result.PublicationIDs = ids
	metrics.RecordRecommendation(string(result.Requested), string(result.Served), len(ids), time.Since(start))
	logger.Debug().
		Str("served", string(result.Served)).
		Int("returned", len(ids)).
		Dur("latency", time.Since(start)).
		Msg("recommendation complete")
	return result, nil
}

func (e *Engine) personalized(ctx context.Context, strategy Strategy, accountID int64, limit, offset int) ([]int64, error) {
	readCtx, cancel := context.WithTimeout(ctx, e.config.Limits.ReadTimeout)
	defer cancel()

	ids, err := e.breaker.Execute(func() ([]int64, error) {
		return e.generator.Generate(readCtx, strategy, accountID, limit, offset)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case isBreakerRejection(err):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		if errors.Is(readCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
	}
	return ids, err
}

func fallbackReason(err error) string {
	switch {
	case isBreakerRejection(err):
		return FallbackReasonBreakerOpen
	case errors.Is(err, context.DeadlineExceeded):
		return FallbackReasonTimeout
	default:
		return FallbackReasonError
	}
}

func (e *Engine) pageLimits() scoring.PageLimits {
	return scoring.PageLimits{
		DefaultLimit: e.config.Limits.DefaultLimit,
		MaxLimit:     e.config.Limits.MaxLimit,
		MaxOffset:    e.config.Limits.MaxOffset,
	}
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:  e.requestCount.Load(),
		Fallbacks: e.fallbackCount.Load(),
		Errors:    e.errorCount.Load(),
		Breaker:   stateToString(e.breaker.State()),
	}
}
