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

// Popularity ranks products by aggregate demand. It is the cold-start
// strategy and the terminal fallback; it degrades only to an empty list
// when the catalog itself is empty, never to an error.
type Popularity struct {
	popularity recommend.PopularityConfig
}

// NewPopularity creates the fallback ranker.
func NewPopularity(cfg *recommend.Config) *Popularity {
	return &Popularity{popularity: cfg.Popularity}
}

// Tag implements recommend.Algorithm.
func (p *Popularity) Tag() recommend.StrategyTag {
	return recommend.TagPopularity
}

// Score implements recommend.Algorithm.
func (p *Popularity) Score(ctx context.Context, snap *recommend.Snapshot, limit int) ([]recommend.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return RankPopular(p.popularity, snap, limit), nil
}

// RankPopular scores available, not-yet-rented products by
// completion-rate and log-scaled unique-renter signals. Products absent
// from the aggregates score 0 and still rank, so a fresh catalog is never
// empty-handed.
func RankPopular(cfg recommend.PopularityConfig, snap *recommend.Snapshot, limit int) []recommend.Recommendation {
	stats := make(map[int64]recommend.PopularityStat, len(snap.Popularity))
	for _, s := range snap.Popularity {
		stats[s.ProductID] = s
	}

	var recs []recommend.Recommendation
	for _, product := range snap.Catalog {
		if !product.Available {
			continue
		}
		if _, rented := snap.Rented[product.ID]; rented {
			continue
		}
		var score float64
		if s, ok := stats[product.ID]; ok {
			score = cfg.CompletionWeight*s.CompletionRate +
				cfg.ReachWeight*math.Log(float64(s.UniqueRenters)+1)
		}
		recs = append(recs, recommend.Recommendation{
			Product: product,
			Score:   score,
			Tag:     recommend.TagPopularity,
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
	return recs
}

var _ recommend.Algorithm = (*Popularity)(nil)
