// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Command server runs the friend recommendation service: the scoring
// engine behind an HTTP API, a result cache with event-driven
// invalidation, and a DuckDB-backed candidate store, all under suture
// supervision.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/campusmatch/friendrec/internal/api"
	"github.com/campusmatch/friendrec/internal/cache"
	"github.com/campusmatch/friendrec/internal/config"
	"github.com/campusmatch/friendrec/internal/events"
	"github.com/campusmatch/friendrec/internal/logging"
	"github.com/campusmatch/friendrec/internal/recommend"
	"github.com/campusmatch/friendrec/internal/recommend/reranking"
	"github.com/campusmatch/friendrec/internal/recommend/scoring"
	"github.com/campusmatch/friendrec/internal/repository"
	"github.com/campusmatch/friendrec/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("service failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger := logging.Logger()

	logger.Info().
		Str("algorithm_version", recommend.AlgorithmVersion).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("events_enabled", cfg.Events.Enabled).
		Msg("starting friendrec")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Candidate store: DuckDB behind a circuit breaker.
	store, err := repository.OpenDuckDB(ctx, cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open candidate store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("closing candidate store")
		}
	}()

	repo := repository.NewResilient(store, repository.ResilientConfig{
		MaxRequestsPerSecond: cfg.Database.MaxRequestsPerSecond,
		BreakerTimeout:       cfg.Database.BreakerTimeout,
	})

	// Result cache.
	resultCache, sweeper, closeCache, err := buildCache(cfg, logger)
	if err != nil {
		return fmt.Errorf("open result cache: %w", err)
	}
	defer closeCache()

	// Scoring engine.
	engine, err := buildEngine(cfg, repo, resultCache, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	// Supervision tree.
	tree := supervisor.NewTree(logging.Slog(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	// HTTP API.
	handler := api.NewHandler(engine)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	tree.AddServing(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout, logger))

	// Event-driven cache invalidation.
	if cfg.Events.Enabled {
		invalidator, ierr := buildInvalidator(cfg, resultCache, logger)
		if ierr != nil {
			return fmt.Errorf("build invalidator: %w", ierr)
		}
		tree.AddBackground(supervisor.NewRunnerService("graph-invalidator", invalidator, logger))
	}

	// Cache janitor.
	tree.AddBackground(supervisor.NewJanitorService(sweeper, cfg.Cache.SweepInterval, logger))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree: %w", err)
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// buildCache selects the configured cache backend. The returned close
// function is a no-op for the memory backend.
func buildCache(cfg *config.Config, logger zerolog.Logger) (recommend.ResultCache, supervisor.Sweeper, func(), error) {
	switch cfg.Cache.Backend {
	case "badger":
		b, err := cache.NewBadger(cache.BadgerConfig{
			Path:     cfg.Cache.Path,
			InMemory: cfg.Cache.Path == "",
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if cerr := b.Close(); cerr != nil {
				logging.Error().Err(cerr).Msg("closing badger cache")
			}
		}
		return b, b, closeFn, nil

	default: // "memory", enforced by config.Validate
		m := cache.NewMemory(cache.MemoryConfig{
			DefaultTTL: cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
		}, logger)
		return m, m, func() {}, nil
	}
}

// buildEngine wires scorers and the diversity reranker into the engine.
func buildEngine(cfg *config.Config, repo recommend.CandidateRepository, resultCache recommend.ResultCache, logger zerolog.Logger) (*recommend.Engine, error) {
	engineCfg := &recommend.Config{
		DefaultLimit:         cfg.Recommend.DefaultLimit,
		MaxLimit:             cfg.Recommend.MaxLimit,
		CandidatePoolSize:    cfg.Recommend.CandidatePoolSize,
		MaxConcurrentScoring: cfg.Recommend.MaxConcurrentScoring,
		DefaultDiversity:     cfg.Recommend.DefaultDiversity,
		RequestTimeout:       cfg.Recommend.RequestTimeout,
		CacheEnabled:         cfg.Recommend.CacheEnabled,
		CacheTTL:             cfg.Cache.TTL,
		Weights: recommend.Weights{
			University:        cfg.Recommend.Weights.University,
			MutualConnections: cfg.Recommend.Weights.MutualConnections,
			Interests:         cfg.Recommend.Weights.Interests,
			Engagement:        cfg.Recommend.Weights.Engagement,
			Geography:         cfg.Recommend.Weights.Geography,
		},
	}

	scorers := recommend.Scorers{
		University: scoring.NewUniversity(scoring.UniversityConfig{}),
		Mutual:     scoring.NewMutual(repo, scoring.MutualConfig{}),
		Interest:   scoring.NewInterest(scoring.InterestConfig{}),
	}

	return recommend.NewEngine(engineCfg, repo, resultCache, scorers, reranking.NewDiversity(), logger)
}

// buildInvalidator connects the graph event subscriber to the cache.
func buildInvalidator(cfg *config.Config, resultCache recommend.ResultCache, logger zerolog.Logger) (*events.Invalidator, error) {
	wmLogger := events.NewWatermillLogger(logger)

	sub, err := events.NewNATSSubscriber(events.DefaultNATSConfig(
		cfg.Events.NATSURL,
		cfg.Events.DurableName,
		cfg.Events.QueueGroup,
	), wmLogger)
	if err != nil {
		return nil, err
	}

	return events.NewInvalidator(sub, resultCache, events.DefaultInvalidatorConfig(), wmLogger)
}
