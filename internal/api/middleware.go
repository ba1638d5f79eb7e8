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
	"github.com/google/uuid"

	"github.com/campusmatch/friendrec/internal/logging"
	"github.com/campusmatch/friendrec/internal/metrics"
)

// requestIDHeader carries the request ID to clients and upstream proxies.
const requestIDHeader = "X-Request-ID"

// RequestID assigns a UUID to each request lacking one and echoes it in
// the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// RequestLogging logs one structured line per completed request and
// records API metrics keyed by the chi route pattern.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		pattern := routePattern(r)

		metrics.ObserveAPIRequest(r.Method, pattern, ww.Status(), elapsed)

		logging.Info().
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("route", pattern).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", elapsed).
			Str("request_id", w.Header().Get(requestIDHeader)).
			Str("remote", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// routePattern returns the chi route pattern so metrics cardinality
// stays bounded (path parameters are not interpolated).
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// SecurityHeaders sets conservative headers on API responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
