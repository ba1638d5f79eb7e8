// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package config loads and validates service configuration.
//
// Configuration is layered with koanf: built-in defaults, then an
// optional YAML file, then environment variables. Environment variables
// use the FRIENDREC_ prefix with underscores mapping to nesting, e.g.
// FRIENDREC_SERVER_PORT overrides server.port.
package config

import (
	"fmt"
	"time"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Recommend RecommendConfig `koanf:"recommend"`
	Events    EventsConfig    `koanf:"events"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LogConfig controls the zerolog global logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig controls the DuckDB candidate store.
type DatabaseConfig struct {
	Path string `koanf:"path"`

	// Resilience wrapping around the store.
	MaxRequestsPerSecond float64       `koanf:"max_requests_per_second"`
	BreakerTimeout       time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig selects and tunes the result cache backend.
type CacheConfig struct {
	// Backend is "memory" or "badger".
	Backend string `koanf:"backend"`

	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`

	// Path is the Badger directory. Empty selects in-memory Badger.
	Path string `koanf:"path"`

	// SweepInterval is how often the janitor evicts expired entries.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// RecommendConfig tunes the scoring engine.
type RecommendConfig struct {
	DefaultLimit         int           `koanf:"default_limit"`
	MaxLimit             int           `koanf:"max_limit"`
	CandidatePoolSize    int           `koanf:"candidate_pool_size"`
	MaxConcurrentScoring int           `koanf:"max_concurrent_scoring"`
	DefaultDiversity     float64       `koanf:"default_diversity"`
	RequestTimeout       time.Duration `koanf:"request_timeout"`
	CacheEnabled         bool          `koanf:"cache_enabled"`

	Weights WeightsConfig `koanf:"weights"`
}

// WeightsConfig holds the scoring factor weights.
type WeightsConfig struct {
	University        float64 `koanf:"university"`
	MutualConnections float64 `koanf:"mutual_connections"`
	Interests         float64 `koanf:"interests"`
	Engagement        float64 `koanf:"engagement"`
	Geography         float64 `koanf:"geography"`
}

// EventsConfig controls the social-graph event subscriber.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// NATS JetStream connection for production. Tests use the in-process
	// gochannel Pub/Sub instead.
	NATSURL     string `koanf:"nats_url"`
	DurableName string `koanf:"durable_name"`
	QueueGroup  string `koanf:"queue_group"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 20 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:                 "/data/friendrec.duckdb",
			MaxRequestsPerSecond: 0, // pacing off by default
			BreakerTimeout:       30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:       "memory",
			TTL:           5 * time.Minute,
			MaxEntries:    10000,
			Path:          "",
			SweepInterval: time.Minute,
		},
		Recommend: RecommendConfig{
			DefaultLimit:         10,
			MaxLimit:             100,
			CandidatePoolSize:    500,
			MaxConcurrentScoring: 16,
			DefaultDiversity:     0.3,
			RequestTimeout:       10 * time.Second,
			CacheEnabled:         true,
			Weights: WeightsConfig{
				University:        0.40,
				MutualConnections: 0.25,
				Interests:         0.20,
				Engagement:        0.10,
				Geography:         0.05,
			},
		},
		Events: EventsConfig{
			Enabled:     false,
			NATSURL:     "nats://127.0.0.1:4222",
			DurableName: "friendrec-invalidator",
			QueueGroup:  "invalidators",
		},
	}
}

// Validate checks configuration invariants that the type system cannot.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Cache.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("cache.backend %q must be memory or badger", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("cache.sweep_interval must be positive")
	}

	r := c.Recommend
	if r.DefaultLimit < 1 || r.MaxLimit < r.DefaultLimit {
		return fmt.Errorf("recommend limits invalid: default=%d max=%d", r.DefaultLimit, r.MaxLimit)
	}
	if r.CandidatePoolSize < 1 {
		return fmt.Errorf("recommend.candidate_pool_size must be positive")
	}
	if r.MaxConcurrentScoring < 1 {
		return fmt.Errorf("recommend.max_concurrent_scoring must be positive")
	}
	if r.DefaultDiversity < 0 || r.DefaultDiversity > 1 {
		return fmt.Errorf("recommend.default_diversity %f out of [0,1]", r.DefaultDiversity)
	}
	if r.RequestTimeout <= 0 {
		return fmt.Errorf("recommend.request_timeout must be positive")
	}

	w := r.Weights
	for name, v := range map[string]float64{
		"university":         w.University,
		"mutual_connections": w.MutualConnections,
		"interests":          w.Interests,
		"engagement":         w.Engagement,
		"geography":          w.Geography,
	} {
		if v < 0 {
			return fmt.Errorf("recommend.weights.%s must be non-negative", name)
		}
	}

	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events.nats_url is required when events are enabled")
	}

	return nil
}
