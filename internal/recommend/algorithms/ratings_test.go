// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package algorithms

import (
	"math"
	"testing"
	"time"

	"github.com/modaro/recommender/internal/recommend"
)

var testRatingConfig = recommend.DefaultConfig().Rating

// rental builds a rental interaction for tests. A zero returnedAt means the
// product was never returned.
func rental(userID, productID int64, qty int, state recommend.RentalState, reservedAt, returnedAt time.Time) recommend.RentalInteraction {
	return recommend.RentalInteraction{
		UserID:     userID,
		ProductID:  productID,
		Quantity:   qty,
		State:      state,
		ReservedAt: reservedAt,
		ReturnedAt: returnedAt,
	}
}

func TestImplicitRatings(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	late := jan.Add(48 * time.Hour)

	tests := []struct {
		name         string
		interactions []recommend.RentalInteraction
		want         map[int64]float64
	}{
		{
			name:         "no interactions yields empty set",
			interactions: nil,
			want:         map[int64]float64{},
		},
		{
			name: "single completed on-time rental",
			interactions: []recommend.RentalInteraction{
				rental(1, 100, 1, recommend.StateCompleted, jan, jan),
			},
			// freq 1/3, completion 1, on-time 1, quantity 1/5
			want: map[int64]float64{100: 5.0 * (0.3*(1.0/3.0) + 0.3 + 0.2 + 0.2*0.2)},
		},
		{
			name: "maximal signals saturate at the rating ceiling",
			interactions: []recommend.RentalInteraction{
				rental(1, 100, 5, recommend.StateCompleted, jan, jan),
				rental(1, 100, 5, recommend.StateCompleted, jan, jan),
				rental(1, 100, 5, recommend.StateCompleted, jan, jan),
			},
			want: map[int64]float64{100: 5.0},
		},
		{
			name: "late return drops the on-time term",
			interactions: []recommend.RentalInteraction{
				rental(1, 100, 1, recommend.StateCompleted, jan, late),
			},
			want: map[int64]float64{100: 5.0 * (0.3*(1.0/3.0) + 0.3 + 0.2*0.2)},
		},
		{
			name: "never-returned rental contributes no on-time signal",
			interactions: []recommend.RentalInteraction{
				rental(1, 100, 1, recommend.StateReserved, jan, time.Time{}),
			},
			want: map[int64]float64{100: 5.0 * (0.3*(1.0/3.0) + 0.2*0.2)},
		},
		{
			name: "frequency counts distinct active months",
			interactions: []recommend.RentalInteraction{
				rental(1, 100, 1, recommend.StateCompleted, jan, jan),
				rental(1, 100, 1, recommend.StateCompleted, feb, feb),
			},
			// 2 rentals over 2 months: same per-month frequency as one
			want: map[int64]float64{100: 5.0 * (0.3*(1.0/3.0) + 0.3 + 0.2 + 0.2*0.2)},
		},
		{
			name: "products rated independently",
			interactions: []recommend.RentalInteraction{
				rental(1, 100, 1, recommend.StateCompleted, jan, jan),
				rental(1, 200, 5, recommend.StateCompleted, jan, jan),
			},
			want: map[int64]float64{
				100: 5.0 * (0.3*(1.0/3.0) + 0.3 + 0.2 + 0.2*0.2),
				200: 5.0 * (0.3*(1.0/3.0) + 0.3 + 0.2 + 0.2),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImplicitRatings(testRatingConfig, tt.interactions)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d ratings, want %d", len(got), len(tt.want))
			}
			for productID, want := range tt.want {
				if math.Abs(got[productID]-want) > 1e-9 {
					t.Errorf("rating[%d] = %f, want %f", productID, got[productID], want)
				}
			}
		})
	}
}

func TestImplicitRatingsBounded(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var interactions []recommend.RentalInteraction
	for i := 0; i < 50; i++ {
		interactions = append(interactions,
			rental(1, 100, 50, recommend.StateCompleted, jan, jan))
	}

	got := ImplicitRatings(testRatingConfig, interactions)
	if got[100] > testRatingConfig.MaxRating {
		t.Errorf("rating = %f exceeds max %f", got[100], testRatingConfig.MaxRating)
	}
}

func TestRatingsByUser(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	interactions := []recommend.RentalInteraction{
		rental(1, 100, 1, recommend.StateCompleted, jan, jan),
		rental(2, 100, 1, recommend.StateCompleted, jan, jan),
		rental(2, 200, 1, recommend.StateCompleted, jan, jan),
	}

	got := RatingsByUser(testRatingConfig, interactions)
	if len(got) != 2 {
		t.Fatalf("got %d users, want 2", len(got))
	}
	if len(got[1]) != 1 {
		t.Errorf("user 1 has %d ratings, want 1", len(got[1]))
	}
	if len(got[2]) != 2 {
		t.Errorf("user 2 has %d ratings, want 2", len(got[2]))
	}
	if got[1][100] != got[2][100] {
		t.Errorf("identical histories rated differently: %f vs %f", got[1][100], got[2][100])
	}
}

func TestSafeDiv(t *testing.T) {
	if got := safeDiv(10, 0); got != 0 {
		t.Errorf("safeDiv(10, 0) = %f, want 0", got)
	}
	if got := safeDiv(10, 4); got != 2.5 {
		t.Errorf("safeDiv(10, 4) = %f, want 2.5", got)
	}
}
