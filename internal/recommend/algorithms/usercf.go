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

// Neighbor is a user behaviorally similar to the target user.
type Neighbor struct {
	UserID int64

	// Similarity is the Pearson correlation over commonly rated products.
	Similarity float64

	// CommonProducts is the number of products both users rated.
	CommonProducts int

	// RatedProducts is the neighbor's total rated-product count.
	RatedProducts int
}

// FindNeighbors ranks candidate neighbors for the target user. Candidates
// with fewer than MinCommonProducts commonly rated products are excluded
// regardless of correlation strength; candidates at or below MinSimilarity
// are excluded. Retained neighbors are ranked by similarity*ln(common)
// descending, then by total rated-product count descending, and capped at
// MaxNeighbors.
func FindNeighbors(cfg recommend.NeighborConfig, targetID int64, ratings map[int64]map[int64]float64) []Neighbor {
	target := ratings[targetID]
	if len(target) == 0 {
		return nil
	}

	var neighbors []Neighbor
	for userID, candidate := range ratings {
		if userID == targetID {
			continue
		}
		sim, common := pearson(target, candidate)
		if common < cfg.MinCommonProducts {
			continue
		}
		if sim <= cfg.MinSimilarity {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			UserID:         userID,
			Similarity:     sim,
			CommonProducts: common,
			RatedProducts:  len(candidate),
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		a := neighbors[i].Similarity * math.Log(float64(neighbors[i].CommonProducts))
		b := neighbors[j].Similarity * math.Log(float64(neighbors[j].CommonProducts))
		if a != b {
			return a > b
		}
		if neighbors[i].RatedProducts != neighbors[j].RatedProducts {
			return neighbors[i].RatedProducts > neighbors[j].RatedProducts
		}
		return neighbors[i].UserID < neighbors[j].UserID
	})

	if len(neighbors) > cfg.MaxNeighbors {
		neighbors = neighbors[:cfg.MaxNeighbors]
	}
	return neighbors
}

// pearson computes the Pearson correlation between two rating maps over the
// products both have rated, returning the coefficient and the common-product
// count. Zero variance in either vector yields 0.
func pearson(x, y map[int64]float64) (float64, int) {
	var common []int64
	for productID := range x {
		if _, ok := y[productID]; ok {
			common = append(common, productID)
		}
	}
	n := len(common)
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY float64
	for _, id := range common {
		sumX += x[id]
		sumY += y[id]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for _, id := range common {
		dx := x[id] - meanX
		dy := y[id] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, n
	}
	return cov / math.Sqrt(varX*varY), n
}

// Collaborative recommends products by predicting the target user's rating
// from a neighborhood of similar users.
type Collaborative struct {
	neighbors recommend.NeighborConfig
	predictor recommend.PredictorConfig
	rating    recommend.RatingConfig
}

// NewCollaborative creates the user-based collaborative scorer.
func NewCollaborative(cfg *recommend.Config) *Collaborative {
	return &Collaborative{
		neighbors: cfg.Neighbors,
		predictor: cfg.Predictor,
		rating:    cfg.Rating,
	}
}

// Tag implements recommend.Algorithm.
func (c *Collaborative) Tag() recommend.StrategyTag {
	return recommend.TagCollaborative
}

// Score implements recommend.Algorithm. An empty result with a nil error
// means the user has no usable collaborative signal and the caller should
// fall back.
func (c *Collaborative) Score(ctx context.Context, snap *recommend.Snapshot, limit int) ([]recommend.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ratings := RatingsByUser(c.rating, snap.Interactions)
	if len(ratings[snap.UserID]) == 0 {
		return nil, nil
	}

	neighbors := FindNeighbors(c.neighbors, snap.UserID, ratings)
	if len(neighbors) == 0 {
		return nil, nil
	}

	type prediction struct {
		predicted  float64
		recommends int
	}
	predictions := make(map[int64]*prediction)
	for _, p := range snap.Catalog {
		if !p.Available {
			continue
		}
		if _, rented := snap.Rented[p.ID]; rented {
			continue
		}
		var weighted, weight float64
		var count int
		for _, nb := range neighbors {
			rating, ok := ratings[nb.UserID][p.ID]
			if !ok {
				continue
			}
			weighted += rating * nb.Similarity
			weight += math.Abs(nb.Similarity)
			count++
		}
		if count == 0 || weight == 0 {
			continue
		}
		predicted := weighted / weight
		if predicted < c.predictor.MinPredictedRating {
			continue
		}
		predictions[p.ID] = &prediction{predicted: predicted, recommends: count}
	}
	if len(predictions) == 0 {
		return nil, nil
	}

	products := indexProducts(snap.Catalog)
	recs := make([]recommend.Recommendation, 0, len(predictions))
	for productID, p := range predictions {
		recs = append(recs, recommend.Recommendation{
			Product: products[productID],
			Score:   p.predicted * math.Log(float64(p.recommends)),
			Tag:     recommend.TagCollaborative,
		})
	}

	// Recover the raw prediction for tie-breaking; the primary key folds
	// in how many neighbors vouched for the product.
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		pi := predictions[recs[i].Product.ID].predicted
		pj := predictions[recs[j].Product.ID].predicted
		if pi != pj {
			return pi > pj
		}
		return recs[i].Product.ID < recs[j].Product.ID
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// indexProducts builds an ID lookup over the catalog.
func indexProducts(catalog []recommend.Product) map[int64]recommend.Product {
	idx := make(map[int64]recommend.Product, len(catalog))
	for _, p := range catalog {
		idx[p.ID] = p
	}
	return idx
}

var _ recommend.Algorithm = (*Collaborative)(nil)
