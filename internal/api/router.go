// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

// Package api provides the HTTP surface of the recommendation service using
// the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modaro/recommender/internal/config"
)

// Router wires handlers and middleware into the HTTP mux.
type Router struct {
	cfg       config.ServerConfig
	recommend *RecommendHandler
	health    *HealthHandler
}

// NewRouter creates a Router.
func NewRouter(cfg config.ServerConfig, recommendHandler *RecommendHandler, healthHandler *HealthHandler) *Router {
	return &Router{
		cfg:       cfg,
		recommend: recommendHandler,
		health:    healthHandler,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger())
	r.Use(CORS(router.cfg.CORSOrigins))

	// Permissive limits for probes so monitoring never trips the limiter
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(RateLimit(1000, router.cfg.RateLimitWindow, router.cfg.RateLimitDisabled))
		r.Get("/live", router.health.HealthLive)
		r.Get("/ready", router.health.HealthReady)
	})

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(RateLimit(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow, router.cfg.RateLimitDisabled))
		r.Get("/user/{userID}", router.recommend.GetRecommendations)
		r.Get("/popular", router.recommend.GetPopular)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
