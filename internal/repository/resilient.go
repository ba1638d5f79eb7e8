// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package repository

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/campusmatch/friendrec/internal/logging"
	"github.com/campusmatch/friendrec/internal/metrics"
	"github.com/campusmatch/friendrec/internal/recommend"
)

// Resilient decorates a CandidateRepository with a circuit breaker and
// request pacing. When the underlying store fails persistently the
// breaker opens and calls fail fast instead of stacking latency inside
// the scoring pipeline; the engine surfaces these as UpstreamError.
//
// DETERMINISM NOTE: the breaker uses real time for its interval and
// timeout calculations. Tests exercising failure behavior should drive
// the wrapped repository directly.
type Resilient struct {
	inner   recommend.CandidateRepository
	cb      *gobreaker.CircuitBreaker[interface{}]
	limiter *rate.Limiter
}

// ResilientConfig contains breaker and pacing parameters.
type ResilientConfig struct {
	// MaxRequestsPerSecond paces calls to the underlying store.
	// Zero disables pacing.
	MaxRequestsPerSecond float64

	// Burst is the pacing burst size. Default 2x the rate.
	Burst int

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// NewResilient wraps a repository with breaker and pacing.
func NewResilient(inner recommend.CandidateRepository, cfg ResilientConfig) *Resilient {
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.MaxRequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.MaxRequestsPerSecond * 2)
			if burst < 1 {
				burst = 1
			}
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), burst)
	}

	cbName := "candidate-repository"
	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,

		// Open after a 60% failure rate with at least 10 requests in
		// the window.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.RepositoryBreakerState.Set(breakerStateValue(to))
		},
	})

	return &Resilient{inner: inner, cb: cb, limiter: limiter}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// execute runs one repository call through pacing and the breaker.
func (r *Resilient) execute(ctx context.Context, op string, fn func() (interface{}, error)) (interface{}, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	v, err := r.cb.Execute(fn)
	metrics.RepositoryCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RepositoryCallErrors.WithLabelValues(op).Inc()
	}
	return v, err
}

// GetUserProfile implements recommend.CandidateRepository.
func (r *Resilient) GetUserProfile(ctx context.Context, userID string) (*recommend.Profile, error) {
	v, err := r.execute(ctx, "get_user_profile", func() (interface{}, error) {
		return r.inner.GetUserProfile(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*recommend.Profile), nil
}

// GetCandidates implements recommend.CandidateRepository.
func (r *Resilient) GetCandidates(ctx context.Context, userID string, limit int) ([]recommend.Profile, error) {
	v, err := r.execute(ctx, "get_candidates", func() (interface{}, error) {
		return r.inner.GetCandidates(ctx, userID, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]recommend.Profile), nil
}

// GetBlockedUsers implements recommend.CandidateRepository.
func (r *Resilient) GetBlockedUsers(ctx context.Context, userID string) ([]string, error) {
	v, err := r.execute(ctx, "get_blocked_users", func() (interface{}, error) {
		return r.inner.GetBlockedUsers(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// GetExistingConnections implements recommend.CandidateRepository.
func (r *Resilient) GetExistingConnections(ctx context.Context, userID string) ([]string, error) {
	v, err := r.execute(ctx, "get_existing_connections", func() (interface{}, error) {
		return r.inner.GetExistingConnections(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// GetBehavioralAggregates implements recommend.CandidateRepository.
func (r *Resilient) GetBehavioralAggregates(ctx context.Context, userIDs []string) (map[string]recommend.BehavioralAggregates, error) {
	v, err := r.execute(ctx, "get_behavioral_aggregates", func() (interface{}, error) {
		return r.inner.GetBehavioralAggregates(ctx, userIDs)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]recommend.BehavioralAggregates), nil
}

// Ensure Resilient implements the interface.
var _ recommend.CandidateRepository = (*Resilient)(nil)
