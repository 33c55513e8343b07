// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import (
	"fmt"
	"strings"
	"time"
)

// Config holds event processor configuration.
type Config struct {
	// OutputBuffer is the per-subscriber gochannel buffer. Publishing blocks
	// once it is full.
	OutputBuffer int64

	// JobTimeout bounds one refresh or rebuild attempt.
	JobTimeout time.Duration

	Router RouterConfig

	// NATS selects the JetStream transport. Ignored unless Enabled.
	NATS NATSConfig
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		OutputBuffer: 1024,
		JobTimeout:   30 * time.Second,
		Router:       DefaultRouterConfig(),
		NATS:         DefaultNATSConfig(),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.OutputBuffer < 0 {
		return fmt.Errorf("%w: output buffer must be non-negative", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	return c.Router.Validate()
}

// RouterConfig holds configuration for the Watermill router.
type RouterConfig struct {
	// CloseTimeout is how long Close waits for in-flight handlers.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// ThrottlePerSecond caps handled messages per second (0 = disabled).
	ThrottlePerSecond int64

	// PoisonQueueTopic receives messages that exhausted their retries.
	// Empty disables the poison queue.
	PoisonQueueTopic string
}

// DefaultRouterConfig returns production defaults for the router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
		PoisonQueueTopic:     TopicPoison,
	}
}

// Validate checks the router configuration.
func (c *RouterConfig) Validate() error {
	switch {
	case c.CloseTimeout <= 0:
		return fmt.Errorf("%w: close timeout must be positive", ErrInvalidConfig)
	case c.RetryMaxRetries < 0:
		return fmt.Errorf("%w: retry max retries must be non-negative", ErrInvalidConfig)
	case c.RetryMaxRetries > 0 && c.RetryInitialInterval <= 0:
		return fmt.Errorf("%w: retry initial interval must be positive", ErrInvalidConfig)
	case c.RetryMaxRetries > 0 && c.RetryMultiplier < 1:
		return fmt.Errorf("%w: retry multiplier must be at least 1", ErrInvalidConfig)
	case c.ThrottlePerSecond < 0:
		return fmt.Errorf("%w: throttle must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// NATSConfig configures the JetStream transport (build tag nats).
type NATSConfig struct {
	Enabled bool

	// URL of an external server. Ignored when Embedded is set.
	URL string

	// Embedded starts an in-process server listening on Host:Port
	// (Port -1 picks a free port) with JetStream files under StoreDir.
	Embedded bool
	Host     string
	Port     int
	StoreDir string

	// StreamName is the work-queue stream holding every job topic.
	StreamName    string
	DurablePrefix string
	MaxAge        time.Duration
	AckWait       time.Duration
	MaxDeliver    int
}

// DefaultNATSConfig returns a disabled embedded configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Embedded:      true,
		Host:          "127.0.0.1",
		Port:          -1,
		StoreDir:      "/data/nats",
		StreamName:    "AFFINITY_JOBS",
		DurablePrefix: "affinity",
		MaxAge:        24 * time.Hour,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
	}
}

// Validate checks the NATS configuration when it is enabled.
func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case !c.Embedded && c.URL == "":
		return fmt.Errorf("%w: NATS URL required without embedded server", ErrInvalidConfig)
	case c.Embedded && c.StoreDir == "":
		return fmt.Errorf("%w: NATS store dir required for embedded server", ErrInvalidConfig)
	case c.StreamName == "" || strings.ContainsAny(c.StreamName, ".*> "):
		return fmt.Errorf("%w: invalid NATS stream name %q", ErrInvalidConfig, c.StreamName)
	case c.DurablePrefix == "" || strings.ContainsAny(c.DurablePrefix, ".*> "):
		return fmt.Errorf("%w: invalid NATS durable prefix %q", ErrInvalidConfig, c.DurablePrefix)
	case c.AckWait <= 0:
		return fmt.Errorf("%w: NATS ack wait must be positive", ErrInvalidConfig)
	case c.MaxDeliver < 1:
		return fmt.Errorf("%w: NATS max deliver must be at least 1", ErrInvalidConfig)
	}
	return nil
}
