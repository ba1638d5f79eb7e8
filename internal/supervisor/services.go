// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/campusmatch/friendrec/internal/metrics"
)

// HTTPService runs an http.Server under supervision.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewHTTPService wraps the server for the supervision tree.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 20 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout, logger: logger}
}

// Serve implements suture.Service. It blocks in ListenAndServe and
// drains in-flight requests when the supervisor cancels the context.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return suture.ErrDoNotRestart
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("HTTP server shutdown incomplete, closing")
		_ = s.server.Close()
	}
	<-errCh
	return suture.ErrDoNotRestart
}

// Runner is anything with a blocking Run, such as the event invalidator.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service.
type RunnerService struct {
	name   string
	runner Runner
	logger zerolog.Logger
}

// NewRunnerService wraps runner for the supervision tree.
func NewRunnerService(name string, runner Runner, logger zerolog.Logger) *RunnerService {
	return &RunnerService{name: name, runner: runner, logger: logger}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	s.logger.Info().Str("service", s.name).Msg("service starting")
	err := s.runner.Run(ctx)
	if ctx.Err() != nil {
		return suture.ErrDoNotRestart
	}
	return err
}

func (s *RunnerService) String() string { return s.name }

// Sweeper is a cache backend with periodic maintenance. Sweep returns
// the number of entries evicted.
type Sweeper interface {
	Sweep() int
}

// JanitorService periodically evicts expired cache entries.
type JanitorService struct {
	cache    Sweeper
	interval time.Duration
	logger   zerolog.Logger
}

// NewJanitorService creates a janitor sweeping at the given interval.
func NewJanitorService(cache Sweeper, interval time.Duration, logger zerolog.Logger) *JanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &JanitorService{cache: cache, interval: interval, logger: logger}
}

// Serve implements suture.Service.
func (s *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return suture.ErrDoNotRestart
		case <-ticker.C:
			evicted := s.cache.Sweep()
			if evicted > 0 {
				metrics.CacheInvalidations.WithLabelValues("janitor").Add(float64(evicted))
			}
			s.logger.Debug().Int("evicted", evicted).Msg("cache sweep complete")
		}
	}
}

func (s *JanitorService) String() string { return "cache-janitor" }
