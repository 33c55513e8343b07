// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/affinity/internal/logging"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateLogging,
		c.validateSecurity,
		c.validateAffinity,
		c.validateSimilarity,
		c.validateRecommend,
		c.validateMaintenance,
		c.validateEvents,
		c.validateSupervisor,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	s := c.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", s.Port)
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 || s.IdleTimeout <= 0 {
		return errors.New("HTTP read, write and idle timeouts must be positive")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %v", s.ShutdownTimeout)
	}
	switch s.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", s.Environment)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads)
	}
	if strings.TrimSpace(c.Database.MaxMemory) == "" {
		return errors.New("DUCKDB_MAX_MEMORY is required")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be at least 1, got %d", s.RateLimitReqs)
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", s.RateLimitWindow)
		}
	}
	if s.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be positive, got %d", s.MaxBodyBytes)
	}
	if c.Server.IsProduction() && c.HasWildcardCORS() {
		return errors.New("CORS_ORIGINS must not contain * in production")
	}
	return nil
}

// HasWildcardCORS reports whether any origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateAffinity() error {
	a := c.Affinity
	if a.LikeWeight < 0 || a.SaveWeight < 0 || a.ViewWeight < 0 {
		return errors.New("affinity interaction weights must be non-negative")
	}
	if a.DecayHours <= 0 {
		return fmt.Errorf("AFFINITY_DECAY_HOURS must be positive, got %v", a.DecayHours)
	}
	if a.Lookback <= 0 {
		return fmt.Errorf("AFFINITY_LOOKBACK must be positive, got %v", a.Lookback)
	}
	if a.MaxScore <= 0 {
		return fmt.Errorf("AFFINITY_MAX_SCORE must be positive, got %v", a.MaxScore)
	}
	if a.MaxTopics < 1 {
		return fmt.Errorf("AFFINITY_MAX_TOPICS must be at least 1, got %d", a.MaxTopics)
	}
	if a.NoiseFloor < 0 {
		return fmt.Errorf("AFFINITY_NOISE_FLOOR must be non-negative, got %v", a.NoiseFloor)
	}
	return validateBatch("AFFINITY", a.BatchInterval, a.BatchRate, a.BatchBurst)
}

func (c *Config) validateSimilarity() error {
	s := c.Similarity
	if s.StrongInterestThreshold < 0 {
		return fmt.Errorf("SIMILARITY_STRONG_INTEREST must be non-negative, got %v", s.StrongInterestThreshold)
	}
	if s.MinSharedTopics < 1 {
		return fmt.Errorf("SIMILARITY_MIN_SHARED must be at least 1, got %d", s.MinSharedTopics)
	}
	if s.MinSimilarity < 0 || s.MinSimilarity > 1 {
		return fmt.Errorf("SIMILARITY_MIN_SCORE must be in [0, 1], got %v", s.MinSimilarity)
	}
	if s.MaxSimilarUsers < 1 {
		return fmt.Errorf("SIMILARITY_MAX_USERS must be at least 1, got %d", s.MaxSimilarUsers)
	}
	if s.Freshness <= 0 {
		return fmt.Errorf("SIMILARITY_FRESHNESS must be positive, got %v", s.Freshness)
	}
	return validateBatch("SIMILARITY", s.BatchInterval, s.BatchRate, s.BatchBurst)
}

func validateBatch(prefix string, interval time.Duration, rate float64, burst int) error {
	if interval < 0 {
		return fmt.Errorf("%s_BATCH_INTERVAL must be non-negative, got %v", prefix, interval)
	}
	if rate < 0 {
		return fmt.Errorf("%s_BATCH_RATE must be non-negative, got %v", prefix, rate)
	}
	if rate > 0 && burst < 1 {
		return fmt.Errorf("%s_BATCH_BURST must be at least 1 when rate limited, got %d", prefix, burst)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.MaxLimit < 1 {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT must be at least 1, got %d", r.MaxLimit)
	}
	if r.DefaultLimit < 1 || r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be in [1, %d], got %d", r.MaxLimit, r.DefaultLimit)
	}
	if r.MaxOffset < 0 {
		return fmt.Errorf("RECOMMEND_MAX_OFFSET must be non-negative, got %d", r.MaxOffset)
	}
	if r.ReadTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_READ_TIMEOUT must be positive, got %v", r.ReadTimeout)
	}
	if r.HybridContentRatio < 0 || r.HybridContentRatio > 1 {
		return fmt.Errorf("RECOMMEND_HYBRID_RATIO must be in [0, 1], got %v", r.HybridContentRatio)
	}
	if r.CollaborativeWindow <= 0 || r.PopularityWindow <= 0 {
		return errors.New("recommendation windows must be positive")
	}
	if r.CollaborativePoolSize < 1 {
		return fmt.Errorf("RECOMMEND_COLLAB_POOL must be at least 1, got %d", r.CollaborativePoolSize)
	}
	if r.HybridCollaborativeBuffer < 0 || r.FallbackBuffer < 0 {
		return errors.New("recommendation buffers must be non-negative")
	}
	if r.BreakerFailureThreshold < 1 || r.BreakerMaxRequests < 1 || r.BreakerTimeout <= 0 {
		return errors.New("recommend breaker threshold, max requests and timeout must be positive")
	}
	return nil
}

func (c *Config) validateMaintenance() error {
	m := c.Maintenance
	if m.Interval < 0 {
		return fmt.Errorf("MAINTENANCE_INTERVAL must be non-negative, got %v", m.Interval)
	}
	if m.AffinityRetention <= 0 || m.SimilarityRetention <= 0 {
		return errors.New("maintenance retention periods must be positive")
	}
	if m.SimilarityRetention < c.Similarity.Freshness {
		return fmt.Errorf("MAINTENANCE_SIMILARITY_RETENTION (%v) must not be shorter than SIMILARITY_FRESHNESS (%v)",
			m.SimilarityRetention, c.Similarity.Freshness)
	}
	return nil
}

func (c *Config) validateEvents() error {
	e := c.Events
	if e.OutputBuffer < 0 {
		return fmt.Errorf("EVENTS_OUTPUT_BUFFER must be non-negative, got %d", e.OutputBuffer)
	}
	if e.JobTimeout <= 0 || e.CloseTimeout <= 0 {
		return errors.New("events job and close timeouts must be positive")
	}
	if e.RetryMaxRetries < 0 {
		return fmt.Errorf("EVENTS_RETRY_MAX must be non-negative, got %d", e.RetryMaxRetries)
	}
	if e.RetryMaxRetries > 0 && (e.RetryInitialInterval <= 0 || e.RetryMultiplier < 1) {
		return errors.New("events retry interval must be positive and multiplier at least 1")
	}
	if e.ThrottlePerSecond < 0 {
		return fmt.Errorf("EVENTS_THROTTLE_PER_SECOND must be non-negative, got %d", e.ThrottlePerSecond)
	}
	return e.NATS.validate()
}

func (n NATSConfig) validate() error {
	if !n.Enabled {
		return nil
	}
	if !n.Embedded && n.URL == "" {
		return errors.New("NATS_URL is required when NATS_EMBEDDED is false")
	}
	if n.Embedded && n.StoreDir == "" {
		return errors.New("NATS_STORE_DIR is required for the embedded server")
	}
	if n.StreamName == "" || n.DurablePrefix == "" {
		return errors.New("NATS stream name and durable prefix must be set")
	}
	if n.AckWait <= 0 || n.MaxDeliver < 1 {
		return fmt.Errorf("NATS ack wait must be positive and max deliver at least 1, got %v and %d", n.AckWait, n.MaxDeliver)
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := c.Supervisor
	if s.FailureThreshold <= 0 || s.FailureDecay <= 0 {
		return errors.New("supervisor failure threshold and decay must be positive")
	}
	if s.FailureBackoff <= 0 || s.ShutdownTimeout <= 0 {
		return errors.New("supervisor backoff and shutdown timeout must be positive")
	}
	return nil
}
