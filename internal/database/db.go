// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

// Package database implements the PostgreSQL-backed data store for the
// recommendation engine. Reads are wrapped in a circuit breaker so that a
// failing database trips fast instead of piling up slow queries.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/modaro/recommender/internal/config"
	"github.com/modaro/recommender/internal/metrics"
)

// DB wraps the SQL connection pool.
type DB struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{db: db}, nil
}

// NewFromSQL wraps an existing connection, used by tests with sqlmock.
func NewFromSQL(db *sql.DB) *DB {
	return &DB{db: db}
}

// Ping verifies the database connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// SQL returns the underlying pool.
func (d *DB) SQL() *sql.DB {
	return d.db
}

// query runs an instrumented query.
func (d *DB) query(ctx context.Context, operation, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	metrics.DBConnectionsInUse.Set(float64(d.db.Stats().InUse))
	rows, err := d.db.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery(operation, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", operation, err)
	}
	return rows, nil
}
