// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability and caching information.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"recommendations": [...], "algorithm_version": "2.13.0"},
//	  "metadata": {
//	    "timestamp": "2026-08-24T12:00:00Z",
//	    "query_time_ms": 45,
//	    "cached": false
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "limit must be at most 100",
//	    "details": {"field": "limit"}
//	  },
//	  "metadata": {"timestamp": "2026-08-24T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Recommendation pipeline execution time in milliseconds
//   - Cached: Whether the result was served from the result cache
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - NOT_FOUND: Requester profile doesn't exist
//   - UPSTREAM_ERROR: Candidate store or graph store failure
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - INTERNAL_ERROR: Unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WeightsUpdateRequest is the PATCH body for scoring weight updates.
// Omitted fields keep their current value; present fields replace it.
// All present values must be non-negative.
type WeightsUpdateRequest struct {
	University        *float64 `json:"university,omitempty" validate:"omitempty,min=0"`
	MutualConnections *float64 `json:"mutual_connections,omitempty" validate:"omitempty,min=0"`
	Interests         *float64 `json:"interests,omitempty" validate:"omitempty,min=0"`
	Engagement        *float64 `json:"engagement,omitempty" validate:"omitempty,min=0"`
	Geography         *float64 `json:"geography,omitempty" validate:"omitempty,min=0"`
}

// EngineConfigResponse is returned by the engine configuration endpoints.
type EngineConfigResponse struct {
	Weights          map[string]float64 `json:"weights"`
	WeightsVersion   uint64             `json:"weights_version"`
	DefaultLimit     int                `json:"default_limit"`
	MaxLimit         int                `json:"max_limit"`
	DefaultDiversity float64            `json:"default_diversity"`
	CacheEnabled     bool               `json:"cache_enabled"`
	CacheTTLSeconds  int                `json:"cache_ttl_seconds"`
	AlgorithmVersion string             `json:"algorithm_version"`
}
