// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/modaro/recommender/internal/recommend"
)

// Store implements recommend.Store over the rentals, rental_items and
// products tables. All methods are read-only.
type Store struct {
	db      *DB
	breaker *Breaker
}

// NewStore creates a Store. breaker may be nil to run reads unprotected.
func NewStore(db *DB, breaker *Breaker) *Store {
	return &Store{db: db, breaker: breaker}
}

// Interactions returns the user's rental line items, one row per rented
// product per order.
func (s *Store) Interactions(ctx context.Context, userID int64) ([]recommend.RentalInteraction, error) {
	return protect(s.breaker, func() ([]recommend.RentalInteraction, error) {
		return s.queryInteractions(ctx, "interactions",
			`SELECT r.user_id, ri.product_id, ri.quantity, r.state, r.reserved_at, r.returned_at
			 FROM rentals r
			 JOIN rental_items ri ON r.id = ri.rental_id
			 WHERE r.user_id = $1`, userID)
	})
}

// AllInteractions returns every user's rental line items, used for neighbor
// discovery across the whole user base.
func (s *Store) AllInteractions(ctx context.Context) ([]recommend.RentalInteraction, error) {
	return protect(s.breaker, func() ([]recommend.RentalInteraction, error) {
		return s.queryInteractions(ctx, "all_interactions",
			`SELECT r.user_id, ri.product_id, ri.quantity, r.state, r.reserved_at, r.returned_at
			 FROM rentals r
			 JOIN rental_items ri ON r.id = ri.rental_id`)
	})
}

func (s *Store) queryInteractions(ctx context.Context, operation, query string, args ...any) ([]recommend.RentalInteraction, error) {
	rows, err := s.db.query(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []recommend.RentalInteraction
	for rows.Next() {
		var (
			ri         recommend.RentalInteraction
			state      string
			returnedAt sql.NullTime
		)
		if err := rows.Scan(&ri.UserID, &ri.ProductID, &ri.Quantity, &state, &ri.ReservedAt, &returnedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		ri.State = recommend.ParseRentalState(state)
		if returnedAt.Valid {
			ri.ReturnedAt = returnedAt.Time
		}
		interactions = append(interactions, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return interactions, nil
}

// Catalog returns the product catalog. With availableOnly set, unavailable
// products are filtered at the database.
func (s *Store) Catalog(ctx context.Context, availableOnly bool) ([]recommend.Product, error) {
	return protect(s.breaker, func() ([]recommend.Product, error) {
		query := `SELECT id, category_id, colors, sizes, price, available, name, image_url, model_url
			 FROM products`
		if availableOnly {
			query += ` WHERE available = true`
		}

		rows, err := s.db.query(ctx, "catalog", query)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var catalog []recommend.Product
		for rows.Next() {
			var (
				p                 recommend.Product
				imageURL, modelURL sql.NullString
			)
			if err := rows.Scan(&p.ID, &p.CategoryID, pq.Array(&p.Colors), pq.Array(&p.Sizes),
				&p.Price, &p.Available, &p.Name, &imageURL, &modelURL); err != nil {
				return nil, fmt.Errorf("scan product: %w", err)
			}
			p.ImageURL = imageURL.String
			p.ModelURL = modelURL.String
			catalog = append(catalog, p)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate products: %w", err)
		}
		return catalog, nil
	})
}

// AggregatePopularity returns per-product demand aggregates. Completion
// rate counts a completed rental as 1.0 and anything else as 0.5, matching
// the fallback ranker's scoring contract.
func (s *Store) AggregatePopularity(ctx context.Context) ([]recommend.PopularityStat, error) {
	return protect(s.breaker, func() ([]recommend.PopularityStat, error) {
		rows, err := s.db.query(ctx, "aggregate_popularity",
			`SELECT ri.product_id,
			        COUNT(DISTINCT r.user_id) AS unique_renters,
			        COUNT(*) AS total_rentals,
			        AVG(CASE WHEN r.state = 'completed' THEN 1.0 ELSE 0.5 END) AS completion_rate
			 FROM rental_items ri
			 JOIN rentals r ON ri.rental_id = r.id
			 GROUP BY ri.product_id`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var stats []recommend.PopularityStat
		for rows.Next() {
			var st recommend.PopularityStat
			if err := rows.Scan(&st.ProductID, &st.UniqueRenters, &st.TotalRentals, &st.CompletionRate); err != nil {
				return nil, fmt.Errorf("scan popularity: %w", err)
			}
			stats = append(stats, st)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate popularity: %w", err)
		}
		return stats, nil
	})
}

// AlreadyRented returns the set of product IDs the user has ever rented.
func (s *Store) AlreadyRented(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	return protect(s.breaker, func() (map[int64]struct{}, error) {
		rows, err := s.db.query(ctx, "already_rented",
			`SELECT DISTINCT ri.product_id
			 FROM rental_items ri
			 JOIN rentals r ON ri.rental_id = r.id
			 WHERE r.user_id = $1`, userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		rented := make(map[int64]struct{})
		for rows.Next() {
			var productID int64
			if err := rows.Scan(&productID); err != nil {
				return nil, fmt.Errorf("scan rented product: %w", err)
			}
			rented[productID] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate rented products: %w", err)
		}
		return rented, nil
	})
}

var _ recommend.Store = (*Store)(nil)
