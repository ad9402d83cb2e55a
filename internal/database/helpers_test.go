// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"testing"
	"time"

	"github.com/brandlens/brandlens/internal/models"
)

// newTestDB opens a fresh in-memory database for one test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

// newTestBrand inserts a brand and returns it.
func newTestBrand(t *testing.T, db *DB, slug string) *models.Brand {
	t.Helper()
	b := &models.Brand{
		Slug:          slug,
		Name:          "Test " + slug,
		GA4PropertyID: "123456789",
		SERPProjectID: 42,
	}
	if err := db.CreateBrand(context.Background(), b); err != nil {
		t.Fatalf("failed to create brand %q: %v", slug, err)
	}
	return b
}

// countRows counts rows in a table for one brand.
func countRows(t *testing.T, db *DB, table string, brandID int64) int64 {
	t.Helper()
	var n int64
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM "+table+" WHERE brand_id = ?", brandID).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return n
}

// day returns midnight UTC n days after 2026-01-01.
func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}
