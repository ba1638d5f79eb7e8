// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package metrics provides Prometheus instrumentation for the
// recommendation service: request throughput and latency, cache
// efficiency, candidate funnel counts, and repository health.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics

	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total recommendation requests by privacy level and outcome",
		},
		[]string{"privacy", "outcome"}, // outcome: ok, not_found, upstream_error, validation_error, error
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"cache_hit"},
	)

	CandidatesConsidered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates_considered",
			Help:    "Candidates surviving exclusion and privacy filtering per request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 .. 2048
		},
	)

	ResultDiversity = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_result_diversity",
			Help:    "Distinct grouping keys divided by result size",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// Cache metrics

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_lookups_total",
			Help: "Cache lookups by tri-state result",
		},
		[]string{"result"}, // hit, miss, unavailable
	)

	CacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_write_errors_total",
			Help: "Best-effort cache writes that failed",
		},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_invalidations_total",
			Help: "Cache invalidations by trigger",
		},
		[]string{"trigger"}, // event, janitor
	)

	// Repository metrics

	RepositoryCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_call_duration_seconds",
			Help:    "Duration of candidate repository calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RepositoryCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_call_errors_total",
			Help: "Candidate repository call failures",
		},
		[]string{"operation"},
	)

	RepositoryBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repository_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Event processing metrics

	GraphEventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_events_processed_total",
			Help: "Social-graph mutation events processed by topic and outcome",
		},
		[]string{"topic", "outcome"}, // outcome: ok, malformed, error
	)

	// API metrics

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "API requests by method, route, and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

// ObserveAPIRequest records one completed API request.
func ObserveAPIRequest(method, route string, status int, elapsed time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
