// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package recommend

import (
	"context"
	"errors"
	"time"
)

// ErrUpstream indicates the rental data store could not be read. It is a
// recoverable failure: the caller may retry the whole request, but the engine
// itself performs no retries.
var ErrUpstream = errors.New("upstream data store unavailable")

// RentalState classifies the lifecycle state of a rental order.
type RentalState int

const (
	// StateReserved indicates the rental is reserved but not yet completed.
	StateReserved RentalState = iota
	// StateCompleted indicates the rental ran to completion.
	StateCompleted
	// StateOther covers cancelled, disputed, and any unrecognized state.
	StateOther
)

// String returns a human-readable name for the rental state.
func (s RentalState) String() string {
	switch s {
	case StateReserved:
		return "reserved"
	case StateCompleted:
		return "completed"
	default:
		return "other"
	}
}

// ParseRentalState maps a store-level state string onto a RentalState.
// Unknown states fold into StateOther rather than failing.
func ParseRentalState(s string) RentalState {
	switch s {
	case "reserved":
		return StateReserved
	case "completed":
		return StateCompleted
	default:
		return StateOther
	}
}

// RentalInteraction is one line item of a historical rental order. Rows are
// read-only input; the engine never creates or mutates them.
type RentalInteraction struct {
	// UserID identifies the renting user.
	UserID int64 `json:"user_id"`

	// ProductID identifies the rented product.
	ProductID int64 `json:"product_id"`

	// Quantity is the number of units on the line item.
	Quantity int `json:"quantity"`

	// State is the lifecycle state of the surrounding rental order.
	State RentalState `json:"state"`

	// ReservedAt is the reservation (due) date of the order.
	ReservedAt time.Time `json:"reserved_at"`

	// ReturnedAt is when the items came back. Zero if not yet returned.
	ReturnedAt time.Time `json:"returned_at,omitempty"`
}

// OnTime reports whether the items were returned on or before the
// reservation date. Unreturned items are never on time.
func (r RentalInteraction) OnTime() bool {
	return !r.ReturnedAt.IsZero() && !r.ReturnedAt.After(r.ReservedAt)
}

// Product is a catalog entry. Immutable for the duration of a recommendation
// computation.
type Product struct {
	// ID is the product identifier.
	ID int64 `json:"id"`

	// CategoryID identifies the product category.
	CategoryID int64 `json:"category_id"`

	// Colors is the set of colors the product is offered in.
	Colors []string `json:"colors"`

	// Sizes is the set of sizes the product is offered in.
	Sizes []string `json:"sizes"`

	// Price is the rental price.
	Price float64 `json:"price"`

	// Available reports whether the product can currently be rented.
	Available bool `json:"available"`

	// Name is the display name.
	Name string `json:"name"`

	// ImageURL points at the product image.
	ImageURL string `json:"image_url,omitempty"`

	// ModelURL points at the product's 3D model, if any.
	ModelURL string `json:"model_url,omitempty"`
}

// PopularityStat is an aggregate demand row for one product.
type PopularityStat struct {
	// ProductID identifies the product.
	ProductID int64 `json:"product_id"`

	// UniqueRenters is the number of distinct users who rented the product.
	UniqueRenters int `json:"unique_renters"`

	// TotalRentals is the total number of rental line items.
	TotalRentals int `json:"total_rentals"`

	// CompletionRate is the average completion signal across rentals,
	// counting a completed rental as 1.0 and anything else as 0.5.
	CompletionRate float64 `json:"completion_rate"`
}

// Strategy selects which recommendation pipeline serves a request.
type Strategy int

const (
	// StrategyUserBased recommends via behaviorally similar users.
	StrategyUserBased Strategy = iota
	// StrategyItemBased recommends via content-feature similarity.
	StrategyItemBased
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyItemBased:
		return "item_based"
	default:
		return "user_based"
	}
}

// Tag returns the strategy's primary scoring path.
func (s Strategy) Tag() StrategyTag {
	if s == StrategyItemBased {
		return TagContent
	}
	return TagCollaborative
}

// ParseStrategy maps a wire name onto a Strategy. Unknown names default to
// the user-based pipeline.
func ParseStrategy(s string) Strategy {
	if s == "item_based" {
		return StrategyItemBased
	}
	return StrategyUserBased
}

// StrategyTag labels which scoring path produced a recommendation.
type StrategyTag string

const (
	// TagCollaborative marks scores predicted from similar users.
	TagCollaborative StrategyTag = "collaborative"
	// TagContent marks scores from content-feature similarity.
	TagContent StrategyTag = "content"
	// TagPopularity marks aggregate-demand fallback scores.
	TagPopularity StrategyTag = "popularity"
)

// Recommendation is one entry of the ranked output list.
type Recommendation struct {
	// Product is the recommended catalog entry.
	Product Product `json:"product"`

	// Score is the strategy-specific score; ordering is meaningful only
	// within a single response.
	Score float64 `json:"score"`

	// Tag identifies the scoring path that produced this entry.
	Tag StrategyTag `json:"strategy_tag"`
}

// Request is a recommendation request.
type Request struct {
	// UserID is the target user.
	UserID int64 `json:"user_id"`

	// Strategy selects the pipeline.
	Strategy Strategy `json:"strategy"`

	// Limit bounds the result count. Defaults to Config.Limits.DefaultLimit.
	Limit int `json:"limit,omitempty"`

	// RequestID is a unique identifier for tracing. Generated if empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the ranked product list returned to callers.
type Response struct {
	// Recommendations is the ordered result list.
	Recommendations []Recommendation `json:"recommendations"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the recommendations are for.
	UserID int64 `json:"user_id"`

	// Strategy is the requested pipeline.
	Strategy string `json:"strategy"`

	// Tag is the scoring path that actually produced the list. Differs
	// from Strategy when the fallback chain engaged.
	Tag StrategyTag `json:"strategy_tag"`

	// LatencyMS is the total recommendation latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// CacheHit indicates whether the result was served from cache.
	CacheHit bool `json:"cache_hit"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the request-scoped view of the rental store an algorithm
// scores against. All fields are read-only once assembled.
type Snapshot struct {
	// UserID is the target user.
	UserID int64

	// Interactions holds rental rows. For the user-based pipeline this is
	// the bulk fetch across all users; for the item-based pipeline it is
	// the target user's history only.
	Interactions []RentalInteraction

	// Catalog holds candidate products (availability flag included).
	Catalog []Product

	// Rented is the set of product IDs the target user already rented.
	Rented map[int64]struct{}

	// Popularity holds aggregate demand rows. Populated lazily: only
	// fetched once the fallback chain engages.
	Popularity []PopularityStat
}

// Algorithm scores a snapshot into a ranked recommendation list.
// An empty (or nil) result with a nil error means insufficient data: the
// orchestrator silently advances to the next strategy in the fallback chain.
type Algorithm interface {
	// Tag returns the strategy tag stamped on produced recommendations.
	Tag() StrategyTag

	// Score ranks candidates from the snapshot, truncated to limit.
	Score(ctx context.Context, snap *Snapshot, limit int) ([]Recommendation, error)
}

// Store is the read-only contract against the rental data store. The engine
// performs no writes and no retries; retry policy belongs to the
// implementation behind this interface.
type Store interface {
	// Interactions returns all rental line items for one user.
	Interactions(ctx context.Context, userID int64) ([]RentalInteraction, error)

	// AllInteractions returns rental line items across all users. The user
	// similarity engine derives candidate-neighbor ratings from this bulk
	// view.
	AllInteractions(ctx context.Context) ([]RentalInteraction, error)

	// Catalog returns products, optionally restricted to available ones.
	Catalog(ctx context.Context, availableOnly bool) ([]Product, error)

	// AggregatePopularity returns demand aggregates per product.
	AggregatePopularity(ctx context.Context) ([]PopularityStat, error)

	// AlreadyRented returns the set of product IDs the user has rented.
	AlreadyRented(ctx context.Context, userID int64) (map[int64]struct{}, error)
}
