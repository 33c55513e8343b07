// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/affinity/config.yaml",
	"/etc/affinity/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:                   "/data/affinity.duckdb",
			MaxMemory:              "1GB",
			Threads:                0,
			PreserveInsertionOrder: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			RateLimitReqs:   600,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			MaxBodyBytes:    1 << 20,
		},
		Affinity: AffinityConfig{
			LikeWeight:       3.0,
			SaveWeight:       2.0,
			ViewWeight:       1.0,
			DecayHours:       168,
			Lookback:         90 * 24 * time.Hour,
			MaxScore:         10.0,
			MaxTopics:        50,
			NoiseFloor:       0.1,
			IncrementalPrune: true,
			BatchInterval:    24 * time.Hour,
			BatchRate:        0,
			BatchBurst:       1,
		},
		Similarity: SimilarityConfig{
			StrongInterestThreshold: 0.5,
			MinSharedTopics:         2,
			MinSimilarity:           0.1,
			MaxSimilarUsers:         50,
			Freshness:               7 * 24 * time.Hour,
			BatchInterval:           6 * time.Hour,
			BatchRate:               0,
			BatchBurst:              1,
		},
		Recommend: RecommendConfig{
			ContentMinAffinity:        0.5,
			CollaborativeWindow:       30 * 24 * time.Hour,
			CollaborativePoolSize:     500,
			PopularityWindow:          30 * 24 * time.Hour,
			HybridContentRatio:        0.6,
			HybridCollaborativeBuffer: 5,
			FallbackBuffer:            5,
			Seed:                      42,
			DefaultLimit:              20,
			MaxLimit:                  100,
			MaxOffset:                 1000,
			ReadTimeout:               2 * time.Second,
			BreakerMaxRequests:        3,
			BreakerInterval:           time.Minute,
			BreakerTimeout:            30 * time.Second,
			BreakerFailureThreshold:   5,
		},
		Maintenance: MaintenanceConfig{
			Interval:            24 * time.Hour,
			AffinityRetention:   180 * 24 * time.Hour,
			SimilarityRetention: 14 * 24 * time.Hour,
		},
		Events: EventsConfig{
			OutputBuffer:         1024,
			JobTimeout:           30 * time.Second,
			CloseTimeout:         30 * time.Second,
			RetryMaxRetries:      3,
			RetryInitialInterval: 100 * time.Millisecond,
			RetryMaxInterval:     5 * time.Second,
			RetryMultiplier:      2.0,
			ThrottlePerSecond:    0,
			PoisonQueueEnabled:   true,
			NATS: NATSConfig{
				Embedded:      true,
				Host:          "127.0.0.1",
				Port:          -1,
				StoreDir:      "/data/nats",
				StreamName:    "AFFINITY_JOBS",
				DurablePrefix: "affinity",
				MaxAge:        24 * time.Hour,
				AckWait:       30 * time.Second,
				MaxDeliver:    5,
			},
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when they come
// from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variables (lower-cased) to config paths.
// Variables not listed are ignored.
var envMappings = map[string]string{
	"http_host":               "server.host",
	"http_port":               "server.port",
	"http_read_timeout":       "server.read_timeout",
	"http_write_timeout":      "server.write_timeout",
	"http_idle_timeout":       "server.idle_timeout",
	"http_shutdown_timeout":   "server.shutdown_timeout",
	"environment":             "server.environment",
	"duckdb_path":             "database.path",
	"duckdb_max_memory":       "database.max_memory",
	"duckdb_threads":          "database.threads",
	"duckdb_preserve_order":   "database.preserve_insertion_order",
	"duckdb_skip_indexes":     "database.skip_indexes",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
	"rate_limit_reqs":         "security.rate_limit_reqs",
	"rate_limit_window":       "security.rate_limit_window",
	"disable_rate_limit":      "security.rate_limit_disabled",
	"cors_origins":            "security.cors_origins",
	"max_request_body_bytes":  "security.max_body_bytes",
	"affinity_like_weight":    "affinity.like_weight",
	"affinity_save_weight":    "affinity.save_weight",
	"affinity_view_weight":    "affinity.view_weight",
	"affinity_decay_hours":    "affinity.decay_hours",
	"affinity_lookback":       "affinity.lookback",
	"affinity_max_score":      "affinity.max_score",
	"affinity_max_topics":     "affinity.max_topics",
	"affinity_noise_floor":    "affinity.noise_floor",
	"affinity_prune":          "affinity.incremental_prune",
	"affinity_batch_interval": "affinity.batch_interval",
	"affinity_batch_rate":     "affinity.batch_rate",
	"affinity_batch_burst":    "affinity.batch_burst",

	"similarity_strong_interest":  "similarity.strong_interest_threshold",
	"similarity_min_shared":       "similarity.min_shared_topics",
	"similarity_min_score":        "similarity.min_similarity",
	"similarity_max_users":        "similarity.max_similar_users",
	"similarity_freshness":        "similarity.freshness",
	"similarity_batch_interval":   "similarity.batch_interval",
	"similarity_batch_rate":       "similarity.batch_rate",
	"similarity_batch_burst":      "similarity.batch_burst",
	"recommend_min_affinity":      "recommend.content_min_affinity",
	"recommend_collab_window":     "recommend.collaborative_window",
	"recommend_collab_pool":       "recommend.collaborative_pool_size",
	"recommend_popular_window":    "recommend.popularity_window",
	"recommend_hybrid_ratio":      "recommend.hybrid_content_ratio",
	"recommend_hybrid_buffer":     "recommend.hybrid_collaborative_buffer",
	"recommend_fallback_buffer":   "recommend.fallback_buffer",
	"recommend_seed":              "recommend.seed",
	"recommend_default_limit":     "recommend.default_limit",
	"recommend_max_limit":         "recommend.max_limit",
	"recommend_max_offset":        "recommend.max_offset",
	"recommend_read_timeout":      "recommend.read_timeout",
	"recommend_breaker_requests":  "recommend.breaker_max_requests",
	"recommend_breaker_interval":  "recommend.breaker_interval",
	"recommend_breaker_timeout":   "recommend.breaker_timeout",
	"recommend_breaker_threshold": "recommend.breaker_failure_threshold",

	"maintenance_interval":             "maintenance.interval",
	"maintenance_affinity_retention":   "maintenance.affinity_retention",
	"maintenance_similarity_retention": "maintenance.similarity_retention",
	"events_output_buffer":             "events.output_buffer",
	"events_job_timeout":               "events.job_timeout",
	"events_close_timeout":             "events.close_timeout",
	"events_retry_max":                 "events.retry_max_retries",
	"events_retry_initial_interval":    "events.retry_initial_interval",
	"events_retry_max_interval":        "events.retry_max_interval",
	"events_retry_multiplier":          "events.retry_multiplier",
	"events_throttle_per_second":       "events.throttle_per_second",
	"events_poison_queue":              "events.poison_queue_enabled",
	"nats_enabled":                     "events.nats.enabled",
	"nats_url":                         "events.nats.url",
	"nats_embedded":                    "events.nats.embedded",
	"nats_host":                        "events.nats.host",
	"nats_port":                        "events.nats.port",
	"nats_store_dir":                   "events.nats.store_dir",
	"nats_stream_name":                 "events.nats.stream_name",
	"nats_durable_prefix":              "events.nats.durable_prefix",
	"nats_max_age":                     "events.nats.max_age",
	"nats_ack_wait":                    "events.nats.ack_wait",
	"nats_max_deliver":                 "events.nats.max_deliver",
	"supervisor_failure_threshold":     "supervisor.failure_threshold",
	"supervisor_failure_decay":         "supervisor.failure_decay",
	"supervisor_failure_backoff":       "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":      "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable name to its config path, or
// "" to skip it so unrelated variables never leak into the config.
//
//   - DUCKDB_PATH -> database.path
//   - AFFINITY_LOOKBACK -> affinity.lookback
//   - RECOMMEND_READ_TIMEOUT -> recommend.read_timeout
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
