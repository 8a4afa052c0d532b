// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modaro/recommender/internal/recommend"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(NewFromSQL(db), nil), mock
}

func TestStoreInteractions(t *testing.T) {
	store, mock := newMockStore(t)

	reserved := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	returned := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"user_id", "product_id", "quantity", "state", "reserved_at", "returned_at"}).
		AddRow(int64(7), int64(11), 2, "completed", reserved, returned).
		AddRow(int64(7), int64(12), 1, "reserved", reserved, nil).
		AddRow(int64(7), int64(13), 3, "cancelled", reserved, nil)

	mock.ExpectQuery(`SELECT r\.user_id, ri\.product_id, ri\.quantity, r\.state, r\.reserved_at, r\.returned_at`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	got, err := store.Interactions(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, int64(11), got[0].ProductID)
	assert.Equal(t, recommend.StateCompleted, got[0].State)
	assert.True(t, got[0].OnTime())

	assert.Equal(t, recommend.StateReserved, got[1].State)
	assert.True(t, got[1].ReturnedAt.IsZero())

	assert.Equal(t, recommend.StateOther, got[2].State)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAllInteractions(t *testing.T) {
	store, mock := newMockStore(t)

	reserved := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"user_id", "product_id", "quantity", "state", "reserved_at", "returned_at"}).
		AddRow(int64(1), int64(11), 1, "completed", reserved, reserved).
		AddRow(int64(2), int64(11), 1, "completed", reserved, reserved)

	mock.ExpectQuery(`SELECT r\.user_id, ri\.product_id, ri\.quantity`).
		WillReturnRows(rows)

	got, err := store.AllInteractions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].UserID)
	assert.Equal(t, int64(2), got[1].UserID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInteractionsQueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT r\.user_id`).
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection refused"))

	_, err := store.Interactions(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStoreCatalog(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "category_id", "colors", "sizes", "price", "available", "name", "image_url", "model_url"}).
		AddRow(int64(1), int64(3), pq.Array([]string{"red", "blue"}), pq.Array([]string{"M", "L"}),
			49.90, true, "camping tent", "https://cdn.example.com/tent.jpg", nil).
		AddRow(int64(2), int64(3), pq.Array([]string{}), pq.Array([]string{}),
			19.90, false, "sleeping bag", nil, nil)

	mock.ExpectQuery(`SELECT id, category_id, colors, sizes, price, available, name, image_url, model_url`).
		WillReturnRows(rows)

	got, err := store.Catalog(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"red", "blue"}, got[0].Colors)
	assert.Equal(t, []string{"M", "L"}, got[0].Sizes)
	assert.Equal(t, "https://cdn.example.com/tent.jpg", got[0].ImageURL)
	assert.Empty(t, got[0].ModelURL)

	assert.False(t, got[1].Available)
	assert.Empty(t, got[1].Colors)
	assert.Empty(t, got[1].ImageURL)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCatalogAvailableOnly(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "category_id", "colors", "sizes", "price", "available", "name", "image_url", "model_url"}).
		AddRow(int64(1), int64(3), pq.Array([]string{"red"}), pq.Array([]string{"M"}),
			49.90, true, "camping tent", nil, nil)

	mock.ExpectQuery(`FROM products\s+WHERE available = true`).
		WillReturnRows(rows)

	got, err := store.Catalog(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Available)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAggregatePopularity(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"product_id", "unique_renters", "total_rentals", "completion_rate"}).
		AddRow(int64(1), 12, 30, 0.85).
		AddRow(int64(2), 4, 4, 1.0)

	mock.ExpectQuery(`COUNT\(DISTINCT r\.user_id\)`).
		WillReturnRows(rows)

	got, err := store.AggregatePopularity(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ProductID)
	assert.Equal(t, 12, got[0].UniqueRenters)
	assert.Equal(t, 30, got[0].TotalRentals)
	assert.InDelta(t, 0.85, got[0].CompletionRate, 1e-9)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAlreadyRented(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"product_id"}).
		AddRow(int64(11)).
		AddRow(int64(12))

	mock.ExpectQuery(`SELECT DISTINCT ri\.product_id`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	got, err := store.AlreadyRented(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	_, ok := got[11]
	assert.True(t, ok)
	_, ok = got[12]
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAlreadyRentedEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT DISTINCT ri\.product_id`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}))

	got, err := store.AlreadyRented(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestStoreScanError(t *testing.T) {
	store, mock := newMockStore(t)

	// Wrong column type for quantity forces a scan failure.
	rows := sqlmock.NewRows([]string{"user_id", "product_id", "quantity", "state", "reserved_at", "returned_at"}).
		AddRow(int64(7), int64(11), "not-a-number", "completed", "also-not-a-time", nil)

	mock.ExpectQuery(`SELECT r\.user_id`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	_, err := store.Interactions(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan interaction")
}
