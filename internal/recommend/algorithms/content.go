// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package algorithms

import (
	"context"
	"math"
	"sort"

	"github.com/modaro/recommender/internal/recommend"
)

// Features is a product's content representation for similarity scoring.
type Features struct {
	Category int64
	Colors   map[string]struct{}
	Sizes    map[string]struct{}
}

// ExtractFeatures builds the feature representation of a product.
func ExtractFeatures(p recommend.Product) Features {
	return Features{
		Category: p.CategoryID,
		Colors:   toSet(p.Colors),
		Sizes:    toSet(p.Sizes),
	}
}

// Similarity scores two feature representations in [0,1]: full category
// weight on an exact match plus the weighted overlap coefficients of the
// color and size sets. Symmetric in its arguments.
func Similarity(cfg recommend.ContentConfig, a, b Features) float64 {
	var score float64
	if a.Category == b.Category {
		score += cfg.CategoryWeight
	}
	score += cfg.ColorWeight * overlapCoefficient(a.Colors, b.Colors)
	score += cfg.SizeWeight * overlapCoefficient(a.Sizes, b.Sizes)
	return score
}

// overlapCoefficient is |a ∩ b| / sqrt(|a|*|b|), or 0 when either set is
// empty.
func overlapCoefficient(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for v := range a {
		if _, ok := b[v]; ok {
			intersection++
		}
	}
	return float64(intersection) / math.Sqrt(float64(len(a))*float64(len(b)))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// ContentBased recommends products whose attributes resemble the user's
// rental history.
type ContentBased struct {
	content recommend.ContentConfig
}

// NewContentBased creates the item-based content scorer.
func NewContentBased(cfg *recommend.Config) *ContentBased {
	return &ContentBased{content: cfg.Content}
}

// Tag implements recommend.Algorithm.
func (c *ContentBased) Tag() recommend.StrategyTag {
	return recommend.TagContent
}

// Score implements recommend.Algorithm. Each available, not-yet-rented
// product is scored by its maximum similarity against any product in the
// user's history; candidates sharing nothing with the history rank last at
// score 0 rather than dropping out. Only an empty history yields an empty
// result, triggering the caller's fallback.
func (c *ContentBased) Score(ctx context.Context, snap *recommend.Snapshot, limit int) ([]recommend.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var history []Features
	for _, p := range snap.Catalog {
		if _, rented := snap.Rented[p.ID]; rented {
			history = append(history, ExtractFeatures(p))
		}
	}
	if len(history) == 0 {
		return nil, nil
	}

	var recs []recommend.Recommendation
	for _, p := range snap.Catalog {
		if !p.Available {
			continue
		}
		if _, rented := snap.Rented[p.ID]; rented {
			continue
		}
		candidate := ExtractFeatures(p)
		best := 0.0
		for _, h := range history {
			if sim := Similarity(c.content, candidate, h); sim > best {
				best = sim
			}
		}
		recs = append(recs, recommend.Recommendation{
			Product: p,
			Score:   best,
			Tag:     recommend.TagContent,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Product.ID < recs[j].Product.ID
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

var _ recommend.Algorithm = (*ContentBased)(nil)
