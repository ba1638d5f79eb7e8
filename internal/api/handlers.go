// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/campusmatch/friendrec/internal/logging"
	"github.com/campusmatch/friendrec/internal/metrics"
	"github.com/campusmatch/friendrec/internal/models"
	"github.com/campusmatch/friendrec/internal/recommend"
)

// Handler serves the recommendation endpoints.
type Handler struct {
	engine *recommend.Engine
}

// NewHandler creates a Handler backed by the given engine.
func NewHandler(engine *recommend.Engine) *Handler {
	return &Handler{engine: engine}
}

// recommendationsParams carries the validated query parameters.
type recommendationsParams struct {
	UserID    string  `validate:"required"`
	Limit     int     `validate:"min=1,max=100"`
	Diversity float64 `validate:"min=0,max=1"`
	Privacy   string  `validate:"omitempty,privacy_level"`
}

// Recommendations handles GET /api/v1/recommendations/{userID}.
//
// Query parameters:
//
//	limit      maximum results (1-100, default from engine config)
//	diversity  diversity factor (0-1, default from engine config)
//	privacy    privacy tier: public, university, friends (default public)
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.Settings()

	params := recommendationsParams{
		UserID:    chi.URLParam(r, "userID"),
		Limit:     getIntParam(r, "limit", cfg.DefaultLimit),
		Diversity: getFloatParam(r, "diversity", cfg.DefaultDiversity),
		Privacy:   r.URL.Query().Get("privacy"),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		metrics.RecommendationRequests.WithLabelValues(params.Privacy, "validation_error").Inc()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	privacy := recommend.PrivacyLevel(params.Privacy)
	if params.Privacy == "" {
		privacy = recommend.PrivacyPublic
	}

	req := recommend.Request{
		UserID:          params.UserID,
		Limit:           params.Limit,
		DiversityFactor: params.Diversity,
		DiversitySet:    r.URL.Query().Get("diversity") != "",
		Privacy:         privacy,
	}

	start := time.Now()
	resp, err := h.engine.GenerateRecommendations(r.Context(), req)
	if err != nil {
		h.respondEngineError(w, string(privacy), params.UserID, err)
		return
	}

	metrics.RecommendationRequests.WithLabelValues(string(privacy), "ok").Inc()
	metrics.RecommendationDuration.WithLabelValues(strconv.FormatBool(resp.CacheHit)).
		Observe(time.Since(start).Seconds())
	if !resp.CacheHit {
		metrics.CandidatesConsidered.Observe(float64(resp.TotalCandidates))
		metrics.ResultDiversity.Observe(resp.Metadata.Diversity)
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: resp.ProcessingTimeMS,
			Cached:      resp.CacheHit,
		},
	})
}

// respondEngineError maps engine errors onto HTTP status codes.
func (h *Handler) respondEngineError(w http.ResponseWriter, privacy, userID string, err error) {
	var (
		validationErr *recommend.ValidationError
		upstreamErr   *recommend.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		metrics.RecommendationRequests.WithLabelValues(privacy, "validation_error").Inc()
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Error(), nil)

	case errors.Is(err, recommend.ErrProfileNotFound):
		metrics.RecommendationRequests.WithLabelValues(privacy, "not_found").Inc()
		respondError(w, http.StatusNotFound, "NOT_FOUND", "user profile not found", nil)

	case errors.As(err, &upstreamErr):
		metrics.RecommendationRequests.WithLabelValues(privacy, "upstream_error").Inc()
		logging.Error().
			Err(err).
			Str("user_id", sanitizeLogValue(userID)).
			Str("operation", upstreamErr.Op).
			Msg("Candidate store failure")
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "candidate store unavailable", nil)

	case errors.Is(err, context.DeadlineExceeded):
		metrics.RecommendationRequests.WithLabelValues(privacy, "error").Inc()
		respondError(w, http.StatusGatewayTimeout, "TIMEOUT", "recommendation computation timed out", nil)

	default:
		metrics.RecommendationRequests.WithLabelValues(privacy, "error").Inc()
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", err)
	}
}

// EngineConfig handles GET /api/v1/recommendations/config.
func (h *Handler) EngineConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     h.configResponse(),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// UpdateWeights handles PATCH /api/v1/recommendations/config.
// The body is a partial weights document; omitted factors are unchanged.
func (h *Handler) UpdateWeights(w http.ResponseWriter, r *http.Request) {
	var body models.WeightsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body", nil)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	patch := &recommend.WeightsPatch{
		University:        body.University,
		MutualConnections: body.MutualConnections,
		Interests:         body.Interests,
		Engagement:        body.Engagement,
		Geography:         body.Geography,
	}

	weights, version, err := h.engine.UpdateWeights(patch)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	logging.Info().
		Interface("weights", weights.ToMap()).
		Int64("weights_version", version).
		Msg("Scoring weights updated")

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     h.configResponse(),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

func (h *Handler) configResponse() *models.EngineConfigResponse {
	cfg := h.engine.Settings()
	weights, version := h.engine.Configuration()

	return &models.EngineConfigResponse{
		Weights:          weights.ToMap(),
		WeightsVersion:   uint64(version),
		DefaultLimit:     cfg.DefaultLimit,
		MaxLimit:         cfg.MaxLimit,
		DefaultDiversity: cfg.DefaultDiversity,
		CacheEnabled:     cfg.CacheEnabled,
		CacheTTLSeconds:  int(cfg.CacheTTL.Seconds()),
		AlgorithmVersion: recommend.AlgorithmVersion,
	}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
