// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

// Package api provides the HTTP surface of the recommendation service:
// Chi routing, request validation and JSON handlers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/MatteoBdl31/trailguide/internal/metrics"
	"github.com/MatteoBdl31/trailguide/internal/middleware"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// maxRequestBodySize bounds request bodies to keep JSON decoding cheap.
const maxRequestBodySize = 1 << 20 // 1MB

// Recommender runs the recommendation pipeline. Implemented by
// recommend.Engine.
type Recommender interface {
	Recommend(ctx context.Context, user *recommend.UserProfile, hctx *recommend.HikeContext, opts recommend.Options) (*recommend.Result, error)
}

// CompletionRecorder stores trail completions. Implemented by storage.Store.
type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, trailID, userID string, profile recommend.ProfileLabel, rating float64) error
}

// Pinger reports backing-store health. Implemented by storage.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	engine      Recommender
	completions CompletionRecorder
	readiness   Pinger
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewHandler creates the handler set. completions and readiness may be nil;
// the corresponding endpoints then degrade (completions 503, readiness ok).
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine Recommender, completions CompletionRecorder, readiness Pinger, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:      engine,
		completions: completions,
		readiness:   readiness,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With().Str("component", "api").Logger(),
	}
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady reports readiness: the backing store must answer a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.readiness.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("readiness probe failed")
			respondError(w, http.StatusServiceUnavailable, "not_ready", "backing store unavailable", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	opts := recommend.Options{Strict: req.Options.Strict, Debug: req.Options.Debug}

	start := time.Now()
	result, err := h.engine.Recommend(r.Context(), req.User.toUserProfile(), req.Context.toHikeContext(), opts)
	if err != nil {
		metrics.RecordPipelineRun(time.Since(start), 0, false, err)
		h.logger.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("recommendation pipeline failed")
		respondError(w, http.StatusInternalServerError, "pipeline_error", "recommendation pipeline failed", nil)
		return
	}

	metrics.RecordPipelineRun(time.Since(start), result.Metadata.FallbackLevel, result.Metadata.LowConfidence, nil)
	metrics.RecordResultCounts(len(result.ExactMatches), len(result.Suggestions), len(result.CollaborativeTrails))
	writeJSON(w, http.StatusOK, result)
}

// CreateCompletion handles POST /api/v1/completions.
func (h *Handler) CreateCompletion(w http.ResponseWriter, r *http.Request) {
	if h.completions == nil {
		respondError(w, http.StatusServiceUnavailable, "completions_disabled", "completion recording is not available", nil)
		return
	}

	var req CompletionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	profile, _ := recommend.ParseProfileLabel(req.Profile)
	if err := h.completions.RecordCompletion(r.Context(), req.TrailID, req.UserID, profile, req.Rating); err != nil {
		h.logger.Error().Err(err).Str("trail_id", req.TrailID).Msg("failed to record completion")
		respondError(w, http.StatusInternalServerError, "storage_error", "failed to record completion", nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// decodeAndValidate decodes the JSON body into dst and validates it. On
// failure it writes the error response and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", nil)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}
