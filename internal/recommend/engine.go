// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages to
// maintain clean separation. The Store interface allows integration with the
// database package without creating circular imports, and Algorithm
// implementations live in the algorithms subpackage.

// Engine orchestrates the recommendation strategies and the fallback chain.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	// Registered algorithms by strategy tag
	algorithms map[StrategyTag]Algorithm
	algMu      sync.RWMutex

	// Counters exposed through Stats
	requestCount  atomic.Int64
	fallbackCount atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	errorCount    atomic.Int64

	// Response cache
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	store Store
}

// cacheEntry holds a cached recommendation response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	RequestCount  int64 `json:"request_count"`
	FallbackCount int64 `json:"fallback_count"`
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	ErrorCount    int64 `json:"error_count"`
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config:     cfg,
		logger:     logger.With().Str("component", "recommend").Logger(),
		algorithms: make(map[StrategyTag]Algorithm),
		cache:      make(map[string]cacheEntry),
	}, nil
}

// SetStore sets the data store the engine reads from.
func (e *Engine) SetStore(s Store) {
	e.store = s
}

// RegisterAlgorithm adds a scorer for its strategy tag, replacing any
// previous registration for that tag.
func (e *Engine) RegisterAlgorithm(alg Algorithm) {
	e.algMu.Lock()
	defer e.algMu.Unlock()

	e.algorithms[alg.Tag()] = alg
	e.logger.Info().
		Str("algorithm", string(alg.Tag())).
		Msg("registered algorithm")
}

// Recommend generates recommendations for a user. The strategy in the
// request selects the primary pipeline; when it produces no usable signal
// the engine falls back to popularity ranking. The caller always receives a
// consistent ranked list or a single upstream failure, never a partial
// result.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.createRequestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	if resp := e.tryGetCachedResponse(req, start, logger); resp != nil {
		return resp, nil
	}

	scope := interactionsUser
	if req.Strategy.Tag() == TagCollaborative {
		scope = interactionsAll
	}
	snap, err := e.loadSnapshot(ctx, req.UserID, scope)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	recs, tag, err := e.scoreWithFallback(ctx, req, snap, logger)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	resp := e.buildResponse(req, recs, tag, start)
	e.cacheResponse(req, resp)

	logger.Debug().
		Str("strategy_tag", string(tag)).
		Int("returned", len(recs)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// Popular returns the popularity ranking directly, bypassing personalized
// strategies. A zero userID ranks the whole catalog with no rental-history
// exclusions.
func (e *Engine) Popular(ctx context.Context, userID int64, limit int) (*Response, error) {
	req := e.prepareRequest(Request{UserID: userID, Limit: limit})
	start := time.Now()
	e.requestCount.Add(1)

	snap, err := e.loadSnapshot(ctx, userID, interactionsNone)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	if err := e.loadPopularity(ctx, snap); err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	alg := e.algorithm(TagPopularity)
	if alg == nil {
		return nil, fmt.Errorf("popularity algorithm not registered")
	}

	recs, err := alg.Score(ctx, snap, req.Limit)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("popularity ranking: %w", err)
	}

	return e.buildResponse(req, recs, TagPopularity, start), nil
}

// prepareRequest applies defaults and assigns a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	if req.Limit <= 0 {
		req.Limit = e.config.Limits.DefaultLimit
	}
	if req.Limit > e.config.Limits.MaxLimit {
		req.Limit = e.config.Limits.MaxLimit
	}

	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Int64("user_id", req.UserID).
		Str("strategy", req.Strategy.String()).
		Logger()
}

// interactionScope selects which rental rows a snapshot carries. Only the
// collaborative pipeline needs the bulk cross-user fetch; the content
// pipeline needs the target user's history, and popularity needs none.
type interactionScope int

const (
	interactionsNone interactionScope = iota
	interactionsUser
	interactionsAll
)

// loadSnapshot issues the independent store reads concurrently and joins
// them into a request-scoped snapshot. Popularity aggregates are fetched
// lazily only when the fallback actually runs.
func (e *Engine) loadSnapshot(ctx context.Context, userID int64, scope interactionScope) (*Snapshot, error) {
	if e.store == nil {
		return nil, fmt.Errorf("store not set")
	}

	snap := &Snapshot{UserID: userID}
	var wg sync.WaitGroup
	errs := make([]error, 3)

	wg.Add(3)
	go func() {
		defer wg.Done()
		var (
			interactions []RentalInteraction
			err          error
		)
		switch scope {
		case interactionsAll:
			interactions, err = e.store.AllInteractions(ctx)
		case interactionsUser:
			interactions, err = e.store.Interactions(ctx, userID)
		default:
			return
		}
		if err != nil {
			errs[0] = fmt.Errorf("fetch interactions: %w", err)
			return
		}
		snap.Interactions = interactions
	}()
	go func() {
		defer wg.Done()
		catalog, err := e.store.Catalog(ctx, false)
		if err != nil {
			errs[1] = fmt.Errorf("fetch catalog: %w", err)
			return
		}
		snap.Catalog = catalog
	}()
	go func() {
		defer wg.Done()
		if userID == 0 {
			snap.Rented = map[int64]struct{}{}
			return
		}
		rented, err := e.store.AlreadyRented(ctx, userID)
		if err != nil {
			errs[2] = fmt.Errorf("fetch rented set: %w", err)
			return
		}
		snap.Rented = rented
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
	}
	return snap, nil
}

// loadPopularity fills the snapshot's popularity aggregates if absent.
func (e *Engine) loadPopularity(ctx context.Context, snap *Snapshot) error {
	if snap.Popularity != nil {
		return nil
	}
	stats, err := e.store.AggregatePopularity(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetch popularity: %w", ErrUpstream, err)
	}
	if stats == nil {
		stats = []PopularityStat{}
	}
	snap.Popularity = stats
	return nil
}

// scoreWithFallback runs the requested strategy and falls back to the
// popularity ranker when it yields no usable signal.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scoreWithFallback(ctx context.Context, req Request, snap *Snapshot, logger zerolog.Logger) ([]Recommendation, StrategyTag, error) {
	primary := e.algorithm(req.Strategy.Tag())
	if primary == nil {
		return nil, "", fmt.Errorf("no algorithm registered for strategy %q", req.Strategy)
	}

	recs, err := primary.Score(ctx, snap, req.Limit)
	if err != nil {
		return nil, "", fmt.Errorf("%s scoring: %w", primary.Tag(), err)
	}
	if len(recs) > 0 {
		return recs, primary.Tag(), nil
	}

	e.fallbackCount.Add(1)
	logger.Debug().
		Str("from", string(primary.Tag())).
		Msg("no personalized signal, falling back to popularity")

	fallback := e.algorithm(TagPopularity)
	if fallback == nil {
		return nil, "", fmt.Errorf("popularity algorithm not registered")
	}
	if err := e.loadPopularity(ctx, snap); err != nil {
		return nil, "", err
	}

	recs, err = fallback.Score(ctx, snap, req.Limit)
	if err != nil {
		return nil, "", fmt.Errorf("popularity scoring: %w", err)
	}
	return recs, TagPopularity, nil
}

// algorithm returns the scorer registered for a tag, or nil.
func (e *Engine) algorithm(tag StrategyTag) Algorithm {
	e.algMu.RLock()
	defer e.algMu.RUnlock()
	return e.algorithms[tag]
}

// buildResponse constructs the final response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(req Request, recs []Recommendation, tag StrategyTag, start time.Time) *Response {
	if recs == nil {
		recs = []Recommendation{}
	}
	return &Response{
		Recommendations: recs,
		Metadata: ResponseMetadata{
			RequestID: req.RequestID,
			UserID:    req.UserID,
			Strategy:  req.Strategy.String(),
			Tag:       tag,
			LatencyMS: time.Since(start).Milliseconds(),
			Timestamp: time.Now(),
		},
	}
}

// GetStats returns the current engine counters.
func (e *Engine) GetStats() Stats {
	return Stats{
		RequestCount:  e.requestCount.Load(),
		FallbackCount: e.fallbackCount.Load(),
		CacheHits:     e.cacheHits.Load(),
		CacheMisses:   e.cacheMisses.Load(),
		ErrorCount:    e.errorCount.Load(),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// cacheKey generates a cache key for a request. The key includes the
// requesting user and strategy since rental history changes invalidate
// prior results.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func (e *Engine) cacheKey(req Request) string {
	return fmt.Sprintf("rec:%d:%d:%s", req.UserID, req.Limit, req.Strategy)
}

// tryGetCachedResponse attempts to retrieve a cached response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) tryGetCachedResponse(req Request, start time.Time, logger zerolog.Logger) *Response {
	if !e.config.Cache.Enabled {
		return nil
	}

	resp := e.checkCache(e.cacheKey(req))
	if resp == nil {
		e.cacheMisses.Add(1)
		return nil
	}

	e.cacheHits.Add(1)
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	logger.Debug().Msg("cache hit")
	return resp
}

// checkCache returns a copy of a valid cached response, or nil.
func (e *Engine) checkCache(key string) *Response {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		return nil
	}

	recs := make([]Recommendation, len(entry.response.Recommendations))
	copy(recs, entry.response.Recommendations)
	return &Response{
		Recommendations: recs,
		Metadata:        entry.response.Metadata,
	}
}

// cacheResponse stores the response in cache if enabled.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheResponse(req Request, resp *Response) {
	if !e.config.Cache.Enabled {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		e.evictExpiredLocked()
	}
	if len(e.cache) >= e.config.Cache.MaxEntries {
		// Still full after eviction; skip caching rather than grow.
		return
	}

	e.cache[e.cacheKey(req)] = cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(e.config.Cache.TTL),
	}
}

// ClearCache removes all cached entries.
func (e *Engine) ClearCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.cache = make(map[string]cacheEntry)
	e.logger.Debug().Msg("cache cleared")
}

// evictExpiredLocked removes expired cache entries.
// Must be called with cacheMu held.
func (e *Engine) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}
