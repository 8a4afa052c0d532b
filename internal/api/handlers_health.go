// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package api

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports data store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthLive handles GET /api/v1/health/live. Always succeeds while the
// process is running.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   map[string]string{"status": "alive"},
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles GET /api/v1/health/ready. Fails when the database is
// unreachable.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Database unreachable", err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   map[string]string{"status": "ready"},
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
	})
}
