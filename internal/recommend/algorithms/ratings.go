// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

// Package algorithms implements the recommendation scorers: collaborative
// filtering over implicit ratings, content-feature similarity, and the
// popularity fallback.
package algorithms

import (
	"math"

	"github.com/modaro/recommender/internal/recommend"
)

// productStats accumulates per-product rental behavior for one user.
type productStats struct {
	rentals       int
	completed     int
	onTime        int
	totalQuantity int
	months        map[string]struct{}
}

// ImplicitRatings derives a 0..MaxRating rating per product from a single
// user's rental history. The behavioral signals are rental frequency per
// active month, fraction of completed rentals, fraction of on-time returns,
// and average quantity per rental, each normalized to [0,1] before weighting.
// A signal with a zero denominator contributes zero.
func ImplicitRatings(cfg recommend.RatingConfig, interactions []recommend.RentalInteraction) map[int64]float64 {
	if len(interactions) == 0 {
		return map[int64]float64{}
	}

	stats := make(map[int64]*productStats)
	for _, ri := range interactions {
		s := stats[ri.ProductID]
		if s == nil {
			s = &productStats{months: make(map[string]struct{})}
			stats[ri.ProductID] = s
		}
		s.rentals++
		s.totalQuantity += ri.Quantity
		if ri.State == recommend.StateCompleted {
			s.completed++
		}
		if ri.OnTime() {
			s.onTime++
		}
		if !ri.ReservedAt.IsZero() {
			s.months[ri.ReservedAt.Format("2006-01")] = struct{}{}
		}
	}

	ratings := make(map[int64]float64, len(stats))
	for productID, s := range stats {
		perMonth := safeDiv(float64(s.rentals), float64(len(s.months)))
		frequency := math.Min(1.0, safeDiv(perMonth, cfg.FrequencyCapPerMonth))
		completion := safeDiv(float64(s.completed), float64(s.rentals))
		onTime := safeDiv(float64(s.onTime), float64(s.rentals))
		avgQuantity := safeDiv(float64(s.totalQuantity), float64(s.rentals))
		quantity := math.Min(1.0, safeDiv(avgQuantity, cfg.QuantityCap))

		score := cfg.FrequencyWeight*frequency +
			cfg.CompletionWeight*completion +
			cfg.OnTimeWeight*onTime +
			cfg.QuantityWeight*quantity
		ratings[productID] = cfg.MaxRating * math.Min(1.0, score)
	}
	return ratings
}

// RatingsByUser groups interactions by user and derives each user's implicit
// ratings. Used for neighbor discovery, where every user's rating vector is
// needed.
func RatingsByUser(cfg recommend.RatingConfig, interactions []recommend.RentalInteraction) map[int64]map[int64]float64 {
	byUser := make(map[int64][]recommend.RentalInteraction)
	for _, ri := range interactions {
		byUser[ri.UserID] = append(byUser[ri.UserID], ri)
	}

	ratings := make(map[int64]map[int64]float64, len(byUser))
	for userID, rows := range byUser {
		ratings[userID] = ImplicitRatings(cfg, rows)
	}
	return ratings
}

// safeDiv returns a/b, or 0 when b is 0.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
