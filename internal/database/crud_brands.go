// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const brandColumns = `id, slug, name, ga4_property_id, serp_project_id, aiv_workspace_id, created_at, updated_at`

// CreateBrand inserts a new brand and fills in its generated id and timestamps.
func (db *DB) CreateBrand(ctx context.Context, b *models.Brand) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO brands (slug, name, ga4_property_id, serp_project_id, aiv_workspace_id)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id, created_at, updated_at`,
		b.Slug, b.Name, b.GA4PropertyID, b.SERPProjectID, b.AIVWorkspaceID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	metrics.RecordDBQuery("insert", "brands", start, err)
	if err != nil {
		return fmt.Errorf("failed to create brand %q: %w", b.Slug, err)
	}
	return nil
}

// GetBrand fetches a brand by id.
func (db *DB) GetBrand(ctx context.Context, id int64) (*models.Brand, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+brandColumns+` FROM brands WHERE id = ?`, id)
	b, err := scanBrand(row)
	metrics.RecordDBQuery("select", "brands", start, err)
	return b, err
}

// GetBrandBySlug fetches a brand by its URL slug.
func (db *DB) GetBrandBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+brandColumns+` FROM brands WHERE slug = ?`, slug)
	b, err := scanBrand(row)
	metrics.RecordDBQuery("select", "brands", start, err)
	return b, err
}

// ListBrands returns all brands ordered by name.
func (db *DB) ListBrands(ctx context.Context) ([]models.Brand, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+brandColumns+` FROM brands ORDER BY name`)
	metrics.RecordDBQuery("select", "brands", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer closeQuietly(rows)

	brands := make([]models.Brand, 0)
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		brands = append(brands, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brands: %w", err)
	}
	return brands, nil
}

// UpdateBrand rewrites a brand's mutable fields.
func (db *DB) UpdateBrand(ctx context.Context, b *models.Brand) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE brands
		 SET slug = ?, name = ?, ga4_property_id = ?, serp_project_id = ?,
		     aiv_workspace_id = ?, updated_at = current_timestamp
		 WHERE id = ?`,
		b.Slug, b.Name, b.GA4PropertyID, b.SERPProjectID, b.AIVWorkspaceID, b.ID)
	metrics.RecordDBQuery("update", "brands", start, err)
	if err != nil {
		return fmt.Errorf("failed to update brand %d: %w", b.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBrand removes a brand and all its synced data.
func (db *DB) DeleteBrand(ctx context.Context, id int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{
		"ga4_daily_metrics", "keywords", "keyword_rankings",
		"prompts", "prompt_responses", "citations",
		"sync_jobs", "dashboard_configs",
	} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE brand_id = ?", table), id); err != nil {
			return fmt.Errorf("failed to delete %s for brand %d: %w", table, id, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM brands WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// scanBrand scans one brand row, mapping sql.ErrNoRows to ErrNotFound.
func scanBrand(row rowScanner) (*models.Brand, error) {
	var b models.Brand
	err := row.Scan(&b.ID, &b.Slug, &b.Name, &b.GA4PropertyID,
		&b.SERPProjectID, &b.AIVWorkspaceID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan brand: %w", err)
	}
	return &b, nil
}
