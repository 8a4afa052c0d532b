// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/modaro/recommender/internal/logging"
	"github.com/modaro/recommender/internal/metrics"
	"github.com/modaro/recommender/internal/recommend"
)

// recommendTimeout bounds a single recommendation computation.
const recommendTimeout = 10 * time.Second

// Recommender is the engine surface the handlers need.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Popular(ctx context.Context, userID int64, limit int) (*recommend.Response, error)
}

// RecommendHandler serves the recommendation endpoints.
type RecommendHandler struct {
	engine Recommender
}

// NewRecommendHandler creates a recommendation handler.
func NewRecommendHandler(engine Recommender) *RecommendHandler {
	return &RecommendHandler{engine: engine}
}

// GetRecommendations handles GET /api/v1/recommendations/user/{userID}.
// Query parameters: strategy (user_based|item_based, default user_based)
// and limit.
func (h *RecommendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", err)
		return
	}

	req := recommend.Request{
		UserID:    userID,
		Strategy:  recommend.ParseStrategy(r.URL.Query().Get("strategy")),
		Limit:     getIntParam(r, "limit", 0),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}

	ctx, cancel := context.WithTimeout(r.Context(), recommendTimeout)
	defer cancel()

	start := time.Now()
	resp, err := h.engine.Recommend(ctx, req)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	metrics.RecordRecommendation(resp.Metadata.Strategy, string(resp.Metadata.Tag),
		len(resp.Recommendations), time.Since(start))
	if resp.Metadata.Tag == recommend.TagPopularity && req.Strategy.Tag() != recommend.TagPopularity {
		metrics.RecordFallback(string(req.Strategy.Tag()))
	}
	if resp.Metadata.CacheHit {
		metrics.RecordCacheHit("recommendations")
	} else {
		metrics.RecordCacheMiss("recommendations")
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: resp.Metadata.LatencyMS,
		},
	})
}

// GetPopular handles GET /api/v1/recommendations/popular. An optional
// user_id query parameter excludes that user's rented products.
func (h *RecommendHandler) GetPopular(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", err)
			return
		}
		userID = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), recommendTimeout)
	defer cancel()

	start := time.Now()
	resp, err := h.engine.Popular(ctx, userID, getIntParam(r, "limit", 0))
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	metrics.RecordRecommendation("popular", string(recommend.TagPopularity),
		len(resp.Recommendations), time.Since(start))

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: resp.Metadata.LatencyMS,
		},
	})
}

// respondEngineError maps engine failures onto HTTP statuses. An upstream
// store failure is a 503 the caller may retry; anything else is a 500.
func (h *RecommendHandler) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	upstream := errors.Is(err, recommend.ErrUpstream)
	metrics.RecordRecommendationError(upstream)
	logging.Ctx(r.Context()).Error().Err(err).Msg("recommendation request failed")

	if upstream {
		respondError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE",
			"Data store temporarily unavailable", err)
		return
	}
	respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR",
		"Failed to generate recommendations", err)
}
