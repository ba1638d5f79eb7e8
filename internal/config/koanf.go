// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/friendrec/config.yaml",
	"/etc/friendrec/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces the service's environment variables.
const envPrefix = "FRIENDREC_"

// Load builds the configuration with precedence ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: optional YAML file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority).
	// FRIENDREC_SERVER_PORT -> server.port
	// FRIENDREC_RECOMMEND_WEIGHTS_UNIVERSITY -> recommend.weights.university
	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config path that exists, or "".
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

// envMappings pins env names whose koanf paths cannot be derived by the
// generic underscore-to-dot rule (multi-word leaf keys).
var envMappings = map[string]string{
	"server_read_timeout":      "server.read_timeout",
	"server_write_timeout":     "server.write_timeout",
	"server_shutdown_timeout":  "server.shutdown_timeout",
	"server_rate_limit_reqs":   "server.rate_limit_reqs",
	"server_rate_limit_window": "server.rate_limit_window",
	"server_cors_origins":      "server.cors_origins",

	"database_max_requests_per_second": "database.max_requests_per_second",
	"database_breaker_timeout":         "database.breaker_timeout",

	"cache_max_entries":    "cache.max_entries",
	"cache_sweep_interval": "cache.sweep_interval",

	"recommend_default_limit":          "recommend.default_limit",
	"recommend_max_limit":              "recommend.max_limit",
	"recommend_candidate_pool_size":    "recommend.candidate_pool_size",
	"recommend_max_concurrent_scoring": "recommend.max_concurrent_scoring",
	"recommend_default_diversity":      "recommend.default_diversity",
	"recommend_request_timeout":        "recommend.request_timeout",
	"recommend_cache_enabled":          "recommend.cache_enabled",

	"recommend_weights_university":         "recommend.weights.university",
	"recommend_weights_mutual_connections": "recommend.weights.mutual_connections",
	"recommend_weights_interests":          "recommend.weights.interests",
	"recommend_weights_engagement":         "recommend.weights.engagement",
	"recommend_weights_geography":          "recommend.weights.geography",

	"events_nats_url":     "events.nats_url",
	"events_durable_name": "events.durable_name",
	"events_queue_group":  "events.queue_group",
}

// envTransform maps FRIENDREC_SECTION_KEY to section.key. Two-part names
// split at the first underscore; longer names consult envMappings.
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		// Unmapped single-word keys are skipped so unrelated environment
		// variables don't pollute the config.
		return ""
	}
	return parts[0] + "." + parts[1]
}
