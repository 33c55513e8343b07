// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package recommend

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}

	if cfg.ContentMinAffinity != 0.5 {
		t.Errorf("ContentMinAffinity = %v, want 0.5", cfg.ContentMinAffinity)
	}
	if cfg.HybridContentRatio != 0.6 {
		t.Errorf("HybridContentRatio = %v, want 0.6", cfg.HybridContentRatio)
	}
	if cfg.Limits.ReadTimeout != 2*time.Second {
		t.Errorf("ReadTimeout = %v, want 2s", cfg.Limits.ReadTimeout)
	}
	if cfg.Limits.MaxLimit != 100 || cfg.Limits.DefaultLimit != 20 {
		t.Errorf("limits = %+v", cfg.Limits)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative min affinity", func(c *Config) { c.ContentMinAffinity = -1 }},
		{"zero collaborative window", func(c *Config) { c.CollaborativeWindow = 0 }},
		{"zero similarity freshness", func(c *Config) { c.SimilarityFreshness = 0 }},
		{"zero pool", func(c *Config) { c.CollaborativePoolSize = 0 }},
		{"zero popularity window", func(c *Config) { c.PopularityWindow = 0 }},
		{"ratio above one", func(c *Config) { c.HybridContentRatio = 1.5 }},
		{"negative hybrid buffer", func(c *Config) { c.HybridCollaborativeBuffer = -1 }},
		{"negative fallback buffer", func(c *Config) { c.FallbackBuffer = -1 }},
		{"zero max limit", func(c *Config) { c.Limits.MaxLimit = 0 }},
		{"default above max", func(c *Config) { c.Limits.DefaultLimit = 500 }},
		{"negative max offset", func(c *Config) { c.Limits.MaxOffset = -1 }},
		{"zero read timeout", func(c *Config) { c.Limits.ReadTimeout = 0 }},
		{"zero failure threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }},
		{"zero breaker timeout", func(c *Config) { c.Breaker.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
