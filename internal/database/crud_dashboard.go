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

	"github.com/goccy/go-json"

	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/models"
)

// GetDashboardConfig returns a brand's dashboard layout, or the default
// layout (all known KPIs and charts) when none has been saved.
func (db *DB) GetDashboardConfig(ctx context.Context, brandID int64) (*models.DashboardConfig, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		cfg        models.DashboardConfig
		kpisJSON   string
		chartsJSON string
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT brand_id, kpis, charts, updated_at FROM dashboard_configs WHERE brand_id = ?`,
		brandID).Scan(&cfg.BrandID, &kpisJSON, &chartsJSON, &cfg.UpdatedAt)
	metrics.RecordDBQuery("select", "dashboard_configs", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.DashboardConfig{
			BrandID: brandID,
			KPIs:    append([]string(nil), models.KnownKPIs...),
			Charts:  append([]string(nil), models.KnownCharts...),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard config for brand %d: %w", brandID, err)
	}

	if err := json.Unmarshal([]byte(kpisJSON), &cfg.KPIs); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard kpis: %w", err)
	}
	if err := json.Unmarshal([]byte(chartsJSON), &cfg.Charts); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard charts: %w", err)
	}
	return &cfg, nil
}

// PutDashboardConfig saves a brand's dashboard layout, replacing any
// previous one.
func (db *DB) PutDashboardConfig(ctx context.Context, cfg *models.DashboardConfig) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	kpisJSON, err := json.Marshal(cfg.KPIs)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard kpis: %w", err)
	}
	chartsJSON, err := json.Marshal(cfg.Charts)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard charts: %w", err)
	}

	cfg.UpdatedAt = time.Now().UTC()
	start := time.Now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO dashboard_configs (brand_id, kpis, charts, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (brand_id) DO UPDATE SET
		   kpis = EXCLUDED.kpis, charts = EXCLUDED.charts, updated_at = EXCLUDED.updated_at`,
		cfg.BrandID, string(kpisJSON), string(chartsJSON), cfg.UpdatedAt)
	metrics.RecordDBQuery("upsert", "dashboard_configs", start, err)
	if err != nil {
		return fmt.Errorf("failed to save dashboard config for brand %d: %w", cfg.BrandID, err)
	}
	return nil
}
