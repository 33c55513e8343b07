// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/affinity/internal/api"
	"github.com/tomtom215/affinity/internal/config"
	"github.com/tomtom215/affinity/internal/database"
	"github.com/tomtom215/affinity/internal/eventprocessor"
	"github.com/tomtom215/affinity/internal/logging"
	"github.com/tomtom215/affinity/internal/recommend"
	"github.com/tomtom215/affinity/internal/recommend/affinity"
	"github.com/tomtom215/affinity/internal/recommend/maintenance"
	"github.com/tomtom215/affinity/internal/recommend/scoring"
	"github.com/tomtom215/affinity/internal/recommend/similarity"
	"github.com/tomtom215/affinity/internal/supervisor"
	"github.com/tomtom215/affinity/internal/supervisor/services"
)

// components holds everything main wires together.
type components struct {
	affinity   *affinity.Calculator
	similarity *similarity.Calculator
	cleaner    *maintenance.Cleaner
	processor  *eventprocessor.Processor
	engine     *recommend.Engine
	handler    *api.Handler
}

// initComponents builds the calculators, job processor, engine and HTTP
// handler on top of db.
func initComponents(cfg *config.Config, db *database.DB) (*components, error) {
	affCalc, err := affinity.NewCalculator(db, buildAffinityConfig(cfg.Affinity), logging.WithComponent("affinity"))
	if err != nil {
		return nil, fmt.Errorf("affinity calculator: %w", err)
	}

	simCalc, err := similarity.NewCalculator(db, buildSimilarityConfig(cfg.Similarity), logging.WithComponent("similarity"))
	if err != nil {
		return nil, fmt.Errorf("similarity calculator: %w", err)
	}

	cleaner, err := maintenance.NewCleaner(db, buildMaintenanceConfig(cfg.Maintenance), logging.WithComponent("maintenance"))
	if err != nil {
		return nil, fmt.Errorf("maintenance cleaner: %w", err)
	}

	processor, err := eventprocessor.NewProcessor(buildEventsConfig(cfg.Events), affCalc, logging.WithComponent("eventprocessor"))
	if err != nil {
		return nil, fmt.Errorf("event processor: %w", err)
	}

	engine, err := recommend.NewEngine(recommend.Dependencies{
		Writes:     db,
		Candidates: db,
		Similar:    simCalc,
		Dispatcher: processor.Dispatcher(),
	}, buildRecommendConfig(cfg), logging.WithComponent("recommend"))
	if err != nil {
		closeProcessor(processor)
		return nil, fmt.Errorf("recommendation engine: %w", err)
	}

	handler, err := api.NewHandler(engine, db, processor, version)
	if err != nil {
		closeProcessor(processor)
		return nil, fmt.Errorf("api handler: %w", err)
	}

	return &components{
		affinity:   affCalc,
		similarity: simCalc,
		cleaner:    cleaner,
		processor:  processor,
		engine:     engine,
		handler:    handler,
	}, nil
}

func closeProcessor(p *eventprocessor.Processor) {
	if err := p.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event processor")
	}
}

// addBackgroundServices registers the batch jobs and the event router.
// Jobs with a zero interval are skipped.
func addBackgroundServices(tree *supervisor.SupervisorTree, cfg *config.Config, c *components) {
	if cfg.Similarity.BatchInterval > 0 {
		tree.AddJobService(services.NewJobService(func(ctx context.Context) error {
			_, err := c.similarity.CalculateAll(ctx)
			return err
		}, services.JobConfig{
			Name:         "similarity-batch",
			Interval:     cfg.Similarity.BatchInterval,
			RunOnStartup: true,
		}, logging.WithComponent("jobs")))
		logging.Info().Dur("interval", cfg.Similarity.BatchInterval).Msg("Similarity batch job added to supervisor tree")
	}

	if cfg.Affinity.BatchInterval > 0 {
		tree.AddJobService(services.NewJobService(func(ctx context.Context) error {
			_, err := c.affinity.RebuildAll(ctx)
			return err
		}, services.JobConfig{
			Name:     "affinity-batch",
			Interval: cfg.Affinity.BatchInterval,
		}, logging.WithComponent("jobs")))
		logging.Info().Dur("interval", cfg.Affinity.BatchInterval).Msg("Affinity batch job added to supervisor tree")
	}

	if cfg.Maintenance.Interval > 0 {
		tree.AddJobService(services.NewJobService(func(ctx context.Context) error {
			_, err := c.cleaner.Run(ctx)
			return err
		}, services.JobConfig{
			Name:     "maintenance",
			Interval: cfg.Maintenance.Interval,
		}, logging.WithComponent("jobs")))
		logging.Info().Dur("interval", cfg.Maintenance.Interval).Msg("Maintenance job added to supervisor tree")
	}

	tree.AddMessagingService(services.NewEventRouterService(c.processor))
	logging.Info().Msg("Event router added to supervisor tree")
}

// addHTTPWhenReady adds the HTTP server once the event router has subscribed
// its handlers, so no interaction is accepted while refresh jobs would be
// dropped. It returns false if ctx ends first.
func addHTTPWhenReady(ctx context.Context, tree *supervisor.SupervisorTree, running <-chan struct{}, server services.HTTPServer, shutdownTimeout time.Duration) bool {
	select {
	case <-running:
	case <-ctx.Done():
		return false
	}
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))
	return true
}

func buildAffinityConfig(c config.AffinityConfig) affinity.Config {
	return affinity.Config{
		Weights: scoring.Weights{
			Like: c.LikeWeight,
			Save: c.SaveWeight,
			View: c.ViewWeight,
		},
		DecayHours:       c.DecayHours,
		Lookback:         c.Lookback,
		MaxScore:         c.MaxScore,
		MaxTopics:        c.MaxTopics,
		NoiseFloor:       c.NoiseFloor,
		IncrementalPrune: c.IncrementalPrune,
		BatchRate:        c.BatchRate,
		BatchBurst:       c.BatchBurst,
	}
}

func buildSimilarityConfig(c config.SimilarityConfig) similarity.Config {
	return similarity.Config{
		StrongInterestThreshold: c.StrongInterestThreshold,
		MinSharedTopics:         c.MinSharedTopics,
		MinSimilarity:           c.MinSimilarity,
		MaxSimilarUsers:         c.MaxSimilarUsers,
		Freshness:               c.Freshness,
		BatchRate:               c.BatchRate,
		BatchBurst:              c.BatchBurst,
	}
}

// buildRecommendConfig maps the recommend section. Similarity freshness is
// shared with the similarity calculator so both read paths agree.
func buildRecommendConfig(cfg *config.Config) *recommend.Config {
	r := cfg.Recommend
	return &recommend.Config{
		ContentMinAffinity:        r.ContentMinAffinity,
		CollaborativeWindow:       r.CollaborativeWindow,
		SimilarityFreshness:       cfg.Similarity.Freshness,
		CollaborativePoolSize:     r.CollaborativePoolSize,
		PopularityWindow:          r.PopularityWindow,
		HybridContentRatio:        r.HybridContentRatio,
		HybridCollaborativeBuffer: r.HybridCollaborativeBuffer,
		FallbackBuffer:            r.FallbackBuffer,
		Limits: recommend.LimitsConfig{
			DefaultLimit: r.DefaultLimit,
			MaxLimit:     r.MaxLimit,
			MaxOffset:    r.MaxOffset,
			ReadTimeout:  r.ReadTimeout,
		},
		Breaker: recommend.BreakerConfig{
			MaxRequests:      r.BreakerMaxRequests,
			Interval:         r.BreakerInterval,
			Timeout:          r.BreakerTimeout,
			FailureThreshold: r.BreakerFailureThreshold,
		},
		Seed: r.Seed,
	}
}

func buildMaintenanceConfig(c config.MaintenanceConfig) maintenance.Config {
	return maintenance.Config{
		AffinityRetention:   c.AffinityRetention,
		SimilarityRetention: c.SimilarityRetention,
	}
}

func buildEventsConfig(c config.EventsConfig) eventprocessor.Config {
	router := eventprocessor.RouterConfig{
		CloseTimeout:         c.CloseTimeout,
		RetryMaxRetries:      c.RetryMaxRetries,
		RetryInitialInterval: c.RetryInitialInterval,
		RetryMaxInterval:     c.RetryMaxInterval,
		RetryMultiplier:      c.RetryMultiplier,
		ThrottlePerSecond:    c.ThrottlePerSecond,
	}
	if c.PoisonQueueEnabled {
		router.PoisonQueueTopic = eventprocessor.TopicPoison
	}
	return eventprocessor.Config{
		OutputBuffer: c.OutputBuffer,
		JobTimeout:   c.JobTimeout,
		Router:       router,
		NATS: eventprocessor.NATSConfig{
			Enabled:       c.NATS.Enabled,
			URL:           c.NATS.URL,
			Embedded:      c.NATS.Embedded,
			Host:          c.NATS.Host,
			Port:          c.NATS.Port,
			StoreDir:      c.NATS.StoreDir,
			StreamName:    c.NATS.StreamName,
			DurablePrefix: c.NATS.DurablePrefix,
			MaxAge:        c.NATS.MaxAge,
			AckWait:       c.NATS.AckWait,
			MaxDeliver:    c.NATS.MaxDeliver,
		},
	}
}

func buildTreeConfig(c config.SupervisorConfig) supervisor.TreeConfig {
	return supervisor.TreeConfig{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		ShutdownTimeout:  c.ShutdownTimeout,
	}
}

func buildRouterConfig(cfg *config.Config) api.RouterConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mw.RateLimitRequests = cfg.Security.RateLimitReqs
	mw.RateLimitWindow = cfg.Security.RateLimitWindow
	mw.RateLimitDisabled = cfg.Security.RateLimitDisabled

	return api.RouterConfig{
		Middleware:           mw,
		MaxBodyBytes:         cfg.Security.MaxBodyBytes,
		SlowRequestThreshold: time.Second,
	}
}
