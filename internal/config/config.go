// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
//
// Loading order (later layers win):
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/affinity/config.yaml)
//  3. Environment variables listed in envMappings
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Logging     LoggingConfig     `koanf:"logging"`
	Security    SecurityConfig    `koanf:"security"`
	Affinity    AffinityConfig    `koanf:"affinity"`
	Similarity  SimilarityConfig  `koanf:"similarity"`
	Recommend   RecommendConfig   `koanf:"recommend"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
	Events      EventsConfig      `koanf:"events"`
	Supervisor  SupervisorConfig  `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging or production
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // DuckDB default is true
	SkipIndexes            bool   `koanf:"skip_indexes"`             // fast test setup
}

// LoggingConfig holds zerolog settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds rate limiting, CORS and request size settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"`
}

// AffinityConfig holds topic affinity scoring parameters.
type AffinityConfig struct {
	LikeWeight       float64       `koanf:"like_weight"`
	SaveWeight       float64       `koanf:"save_weight"`
	ViewWeight       float64       `koanf:"view_weight"`
	DecayHours       float64       `koanf:"decay_hours"`
	Lookback         time.Duration `koanf:"lookback"`
	MaxScore         float64       `koanf:"max_score"`
	MaxTopics        int           `koanf:"max_topics"`
	NoiseFloor       float64       `koanf:"noise_floor"`
	IncrementalPrune bool          `koanf:"incremental_prune"`

	// BatchInterval schedules the full rebuild job (0 = disabled).
	BatchInterval time.Duration `koanf:"batch_interval"`
	BatchRate     float64       `koanf:"batch_rate"` // accounts per second, 0 = unlimited
	BatchBurst    int           `koanf:"batch_burst"`
}

// SimilarityConfig holds user similarity parameters.
type SimilarityConfig struct {
	StrongInterestThreshold float64       `koanf:"strong_interest_threshold"`
	MinSharedTopics         int           `koanf:"min_shared_topics"`
	MinSimilarity           float64       `koanf:"min_similarity"`
	MaxSimilarUsers         int           `koanf:"max_similar_users"`
	Freshness               time.Duration `koanf:"freshness"`

	BatchInterval time.Duration `koanf:"batch_interval"`
	BatchRate     float64       `koanf:"batch_rate"`
	BatchBurst    int           `koanf:"batch_burst"`
}

// RecommendConfig holds recommendation generation and read-path settings.
type RecommendConfig struct {
	ContentMinAffinity        float64       `koanf:"content_min_affinity"`
	CollaborativeWindow       time.Duration `koanf:"collaborative_window"`
	CollaborativePoolSize     int           `koanf:"collaborative_pool_size"`
	PopularityWindow          time.Duration `koanf:"popularity_window"`
	HybridContentRatio        float64       `koanf:"hybrid_content_ratio"`
	HybridCollaborativeBuffer int           `koanf:"hybrid_collaborative_buffer"`
	FallbackBuffer            int           `koanf:"fallback_buffer"`
	Seed                      int64         `koanf:"seed"`

	DefaultLimit int           `koanf:"default_limit"`
	MaxLimit     int           `koanf:"max_limit"`
	MaxOffset    int           `koanf:"max_offset"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`

	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
}

// MaintenanceConfig holds retention cleanup settings.
type MaintenanceConfig struct {
	Interval            time.Duration `koanf:"interval"` // 0 = disabled
	AffinityRetention   time.Duration `koanf:"affinity_retention"`
	SimilarityRetention time.Duration `koanf:"similarity_retention"`
}

// EventsConfig holds async job processing settings.
type EventsConfig struct {
	OutputBuffer         int64         `koanf:"output_buffer"`
	JobTimeout           time.Duration `koanf:"job_timeout"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	RetryMultiplier      float64       `koanf:"retry_multiplier"`
	ThrottlePerSecond    int64         `koanf:"throttle_per_second"`
	PoisonQueueEnabled   bool          `koanf:"poison_queue_enabled"`
	NATS                 NATSConfig    `koanf:"nats"`
}

// NATSConfig selects the NATS JetStream transport for async jobs. It only
// takes effect in binaries built with -tags nats.
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	Embedded      bool          `koanf:"embedded"`
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	StoreDir      string        `koanf:"store_dir"`
	StreamName    string        `koanf:"stream_name"`
	DurablePrefix string        `koanf:"durable_prefix"`
	MaxAge        time.Duration `koanf:"max_age"`
	AckWait       time.Duration `koanf:"ack_wait"`
	MaxDeliver    int           `koanf:"max_deliver"`
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
