// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("default cache backend = %q", cfg.Cache.Backend)
	}
	if cfg.Recommend.CacheEnabled != true {
		t.Error("caching disabled by default")
	}
	if cfg.Events.Enabled {
		t.Error("events enabled by default")
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero sweep interval", func(c *Config) { c.Cache.SweepInterval = 0 }},
		{"max limit below default", func(c *Config) { c.Recommend.MaxLimit = 5 }},
		{"zero pool size", func(c *Config) { c.Recommend.CandidatePoolSize = 0 }},
		{"zero scoring concurrency", func(c *Config) { c.Recommend.MaxConcurrentScoring = 0 }},
		{"diversity above one", func(c *Config) { c.Recommend.DefaultDiversity = 1.5 }},
		{"zero request timeout", func(c *Config) { c.Recommend.RequestTimeout = 0 }},
		{"negative weight", func(c *Config) { c.Recommend.Weights.Geography = -0.1 }},
		{"events without url", func(c *Config) {
			c.Events.Enabled = true
			c.Events.NATSURL = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"FRIENDREC_SERVER_PORT", "server.port"},
		{"FRIENDREC_SERVER_HOST", "server.host"},
		{"FRIENDREC_LOG_LEVEL", "log.level"},
		{"FRIENDREC_SERVER_READ_TIMEOUT", "server.read_timeout"},
		{"FRIENDREC_RECOMMEND_WEIGHTS_UNIVERSITY", "recommend.weights.university"},
		{"FRIENDREC_EVENTS_NATS_URL", "events.nats_url"},
		{"FRIENDREC_CACHE_BACKEND", "cache.backend"},
		// Single-word keys without a mapping are ignored.
		{"FRIENDREC_JUNK", ""},
	}

	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("FRIENDREC_SERVER_PORT", "9090")
	t.Setenv("FRIENDREC_CACHE_TTL", "90s")
	t.Setenv("FRIENDREC_RECOMMEND_WEIGHTS_UNIVERSITY", "0.5")
	t.Setenv("FRIENDREC_DATABASE_PATH", "/tmp/friendrec-test.duckdb")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("cache ttl = %s, want 90s", cfg.Cache.TTL)
	}
	if cfg.Recommend.Weights.University != 0.5 {
		t.Errorf("university weight = %f, want 0.5", cfg.Recommend.Weights.University)
	}
	if cfg.Database.Path != "/tmp/friendrec-test.duckdb" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	// Untouched keys keep their defaults.
	if cfg.Recommend.DefaultLimit != 10 {
		t.Errorf("default limit = %d, want 10", cfg.Recommend.DefaultLimit)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("FRIENDREC_CACHE_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("invalid backend accepted")
	}
}
