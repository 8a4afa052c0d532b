// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package recommend

import (
	"fmt"
	"time"
)

// Config contains all tunable policy for the recommendation engine. The
// historical implementations drifted into three silently-different copies of
// the rating formula and neighbor policy; every weight and threshold now
// lives here and is shared by the target-user and neighbor computations.
type Config struct {
	// Rating contains implicit-rating weights and caps.
	Rating RatingConfig `json:"rating" koanf:"rating"`

	// Neighbors contains user-similarity policy thresholds.
	Neighbors NeighborConfig `json:"neighbors" koanf:"neighbors"`

	// Predictor contains collaborative-prediction thresholds.
	Predictor PredictorConfig `json:"predictor" koanf:"predictor"`

	// Content contains content-similarity feature weights.
	Content ContentConfig `json:"content" koanf:"content"`

	// Popularity contains fallback-ranking weights.
	Popularity PopularityConfig `json:"popularity" koanf:"popularity"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`
}

// RatingConfig parameterizes the implicit-rating formula:
//
//	rating = MaxRating * min(1, w_f*freq + w_c*completion + w_t*ontime + w_q*quantity)
//
// where freq and quantity are normalized against their caps and every term
// treats a zero denominator as a zero contribution.
type RatingConfig struct {
	// FrequencyWeight is the rental-frequency term weight.
	// Default: 0.3.
	FrequencyWeight float64 `json:"frequency_weight" koanf:"frequency_weight"`

	// CompletionWeight is the completed-fraction term weight.
	// Default: 0.3.
	CompletionWeight float64 `json:"completion_weight" koanf:"completion_weight"`

	// OnTimeWeight is the on-time-return term weight.
	// Default: 0.2.
	OnTimeWeight float64 `json:"on_time_weight" koanf:"on_time_weight"`

	// QuantityWeight is the average-quantity term weight.
	// Default: 0.2.
	QuantityWeight float64 `json:"quantity_weight" koanf:"quantity_weight"`

	// FrequencyCapPerMonth is the rentals-per-active-month value at which
	// the frequency term saturates. Default: 3.
	FrequencyCapPerMonth float64 `json:"frequency_cap_per_month" koanf:"frequency_cap_per_month"`

	// QuantityCap is the average quantity at which the quantity term
	// saturates. Default: 5.
	QuantityCap float64 `json:"quantity_cap" koanf:"quantity_cap"`

	// MaxRating is the rating scale ceiling. Default: 5.0.
	MaxRating float64 `json:"max_rating" koanf:"max_rating"`
}

// NeighborConfig parameterizes neighbor discovery.
type NeighborConfig struct {
	// MinCommonProducts is the minimum number of commonly rated products
	// required before a correlation counts as statistical support.
	// Default: 3.
	MinCommonProducts int `json:"min_common_products" koanf:"min_common_products"`

	// MinSimilarity excludes candidates whose Pearson correlation is at or
	// below this value. Default: 0.3.
	MinSimilarity float64 `json:"min_similarity" koanf:"min_similarity"`

	// MaxNeighbors caps the neighborhood size. Default: 10.
	MaxNeighbors int `json:"max_neighbors" koanf:"max_neighbors"`
}

// PredictorConfig parameterizes collaborative prediction.
type PredictorConfig struct {
	// MinPredictedRating is the floor below which a prediction is treated
	// as noise and not recommended. Default: 3.5.
	MinPredictedRating float64 `json:"min_predicted_rating" koanf:"min_predicted_rating"`
}

// ContentConfig parameterizes content-feature similarity.
type ContentConfig struct {
	// CategoryWeight is awarded in full on an exact category match.
	// Default: 0.4.
	CategoryWeight float64 `json:"category_weight" koanf:"category_weight"`

	// ColorWeight scales the color-set overlap coefficient. Default: 0.3.
	ColorWeight float64 `json:"color_weight" koanf:"color_weight"`

	// SizeWeight scales the size-set overlap coefficient. Default: 0.3.
	SizeWeight float64 `json:"size_weight" koanf:"size_weight"`
}

// PopularityConfig parameterizes the fallback ranker:
//
//	score = CompletionWeight*completion_rate + ReachWeight*ln(unique_renters+1)
type PopularityConfig struct {
	// CompletionWeight scales the completion-rate signal. Default: 2.5.
	CompletionWeight float64 `json:"completion_weight" koanf:"completion_weight"`

	// ReachWeight scales the log-scaled unique-renter signal. Default: 2.5.
	ReachWeight float64 `json:"reach_weight" koanf:"reach_weight"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is the result count when the request does not specify
	// one. Default: 10.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit is the largest result count a request may ask for.
	// Default: 50.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`
}

// CacheConfig contains response caching parameters. Cache keys include the
// requesting user and strategy; entries expire after TTL since rental
// history changes invalidate prior results.
type CacheConfig struct {
	// Enabled controls whether response caching is active. Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is the cache entry time-to-live. Default: 5m.
	TTL time.Duration `json:"ttl" koanf:"ttl"`

	// MaxEntries bounds the cache size. Default: 1000.
	MaxEntries int `json:"max_entries" koanf:"max_entries"`
}

// DefaultConfig returns a Config with the canonical production defaults.
func DefaultConfig() *Config {
	return &Config{
		Rating: RatingConfig{
			FrequencyWeight:      0.3,
			CompletionWeight:     0.3,
			OnTimeWeight:         0.2,
			QuantityWeight:       0.2,
			FrequencyCapPerMonth: 3.0,
			QuantityCap:          5.0,
			MaxRating:            5.0,
		},
		Neighbors: NeighborConfig{
			MinCommonProducts: 3,
			MinSimilarity:     0.3,
			MaxNeighbors:      10,
		},
		Predictor: PredictorConfig{
			MinPredictedRating: 3.5,
		},
		Content: ContentConfig{
			CategoryWeight: 0.4,
			ColorWeight:    0.3,
			SizeWeight:     0.3,
		},
		Popularity: PopularityConfig{
			CompletionWeight: 2.5,
			ReachWeight:      2.5,
		},
		Limits: LimitsConfig{
			DefaultLimit: 10,
			MaxLimit:     50,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	r := c.Rating
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"rating.frequency_weight", r.FrequencyWeight},
		{"rating.completion_weight", r.CompletionWeight},
		{"rating.on_time_weight", r.OnTimeWeight},
		{"rating.quantity_weight", r.QuantityWeight},
		{"content.category_weight", c.Content.CategoryWeight},
		{"content.color_weight", c.Content.ColorWeight},
		{"content.size_weight", c.Content.SizeWeight},
		{"popularity.completion_weight", c.Popularity.CompletionWeight},
		{"popularity.reach_weight", c.Popularity.ReachWeight},
	} {
		if w.value < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", w.name, w.value)
		}
	}

	if r.FrequencyCapPerMonth <= 0 {
		return fmt.Errorf("rating.frequency_cap_per_month must be positive, got %f", r.FrequencyCapPerMonth)
	}
	if r.QuantityCap <= 0 {
		return fmt.Errorf("rating.quantity_cap must be positive, got %f", r.QuantityCap)
	}
	if r.MaxRating <= 0 {
		return fmt.Errorf("rating.max_rating must be positive, got %f", r.MaxRating)
	}

	if c.Neighbors.MinCommonProducts < 1 {
		return fmt.Errorf("neighbors.min_common_products must be positive, got %d", c.Neighbors.MinCommonProducts)
	}
	if c.Neighbors.MinSimilarity < -1 || c.Neighbors.MinSimilarity > 1 {
		return fmt.Errorf("neighbors.min_similarity must be in [-1, 1], got %f", c.Neighbors.MinSimilarity)
	}
	if c.Neighbors.MaxNeighbors < 1 {
		return fmt.Errorf("neighbors.max_neighbors must be positive, got %d", c.Neighbors.MaxNeighbors)
	}

	if c.Predictor.MinPredictedRating < 0 || c.Predictor.MinPredictedRating > r.MaxRating {
		return fmt.Errorf("predictor.min_predicted_rating must be in [0, %f], got %f", r.MaxRating, c.Predictor.MinPredictedRating)
	}

	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= limits.default_limit, got %d < %d", c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	cp := *c
	return &cp
}
