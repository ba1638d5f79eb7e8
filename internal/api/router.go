// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes cross-cutting HTTP behavior.
type RouterConfig struct {
	// CORSOrigins lists allowed origins. Empty allows none.
	CORSOrigins []string

	// RateLimitReqs is the per-IP request budget per RateLimitWindow.
	// Zero disables rate limiting.
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// NewRouter assembles the HTTP routing tree.
func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Operational endpoints skip rate limiting so probes and scrapes
	// never starve behind client traffic.
	r.Get("/healthz", handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequestLogging)
		r.Use(SecurityHeaders)
		if cfg.RateLimitReqs > 0 {
			window := cfg.RateLimitWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, window))
		}

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/config", handler.EngineConfig)
			r.Patch("/config", handler.UpdateWeights)
			r.Get("/{userID}", handler.Recommendations)
		})
	})

	return r
}
