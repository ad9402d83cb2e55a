// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"fmt"

	"github.com/brandlens/brandlens/internal/logging"
)

// createTables creates the full schema if it does not exist.
//
// Every syncable table carries a UNIQUE external key column, the conflict
// target of the reconcile engine. Integer-keyed provider entities store the
// upstream id in external_id BIGINT; GA4 has no row-level ids, so its daily
// metrics are keyed by external_key "<property>:<date>".
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	statements := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_brand_id START 1`,

		`CREATE TABLE IF NOT EXISTS brands (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_brand_id'),
			slug VARCHAR NOT NULL UNIQUE,
			name VARCHAR NOT NULL,
			ga4_property_id VARCHAR NOT NULL DEFAULT '',
			serp_project_id BIGINT NOT NULL DEFAULT 0,
			aiv_workspace_id VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS ga4_daily_metrics (
			external_key VARCHAR NOT NULL UNIQUE,
			brand_id BIGINT NOT NULL,
			metric_date DATE NOT NULL,
			sessions BIGINT NOT NULL DEFAULT 0,
			total_users BIGINT NOT NULL DEFAULT 0,
			new_users BIGINT NOT NULL DEFAULT 0,
			page_views BIGINT NOT NULL DEFAULT 0,
			conversions BIGINT NOT NULL DEFAULT 0,
			engagement_rate DOUBLE NOT NULL DEFAULT 0,
			avg_session_duration DOUBLE NOT NULL DEFAULT 0,
			synced_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS keywords (
			external_id BIGINT NOT NULL UNIQUE,
			brand_id BIGINT NOT NULL,
			phrase VARCHAR NOT NULL,
			search_volume BIGINT NOT NULL DEFAULT 0,
			difficulty DOUBLE NOT NULL DEFAULT 0,
			tracked BOOLEAN NOT NULL DEFAULT true,
			synced_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS keyword_rankings (
			external_id BIGINT NOT NULL UNIQUE,
			keyword_external_id BIGINT NOT NULL,
			brand_id BIGINT NOT NULL,
			checked_on DATE NOT NULL,
			"position" BIGINT NOT NULL DEFAULT 0,
			previous_position BIGINT NOT NULL DEFAULT 0,
			ranking_url VARCHAR NOT NULL DEFAULT '',
			serp_features VARCHAR NOT NULL DEFAULT '',
			synced_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS prompts (
			external_id BIGINT NOT NULL UNIQUE,
			brand_id BIGINT NOT NULL,
			text VARCHAR NOT NULL,
			topic VARCHAR NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT true,
			synced_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS prompt_responses (
			external_id BIGINT NOT NULL UNIQUE,
			prompt_external_id BIGINT NOT NULL,
			brand_id BIGINT NOT NULL,
			model VARCHAR NOT NULL DEFAULT '',
			responded_at TIMESTAMP NOT NULL,
			brand_mentioned BOOLEAN NOT NULL DEFAULT false,
			mention_position BIGINT NOT NULL DEFAULT 0,
			sentiment_score DOUBLE NOT NULL DEFAULT 0,
			share_of_voice DOUBLE NOT NULL DEFAULT 0,
			synced_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS citations (
			external_id BIGINT NOT NULL UNIQUE,
			response_external_id BIGINT NOT NULL,
			brand_id BIGINT NOT NULL,
			url VARCHAR NOT NULL DEFAULT '',
			domain VARCHAR NOT NULL DEFAULT '',
			title VARCHAR NOT NULL DEFAULT '',
			"position" BIGINT NOT NULL DEFAULT 0,
			synced_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sync_jobs (
			id UUID PRIMARY KEY,
			brand_id BIGINT NOT NULL,
			source VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'pending',
			progress BIGINT NOT NULL DEFAULT 0,
			total_fetched BIGINT NOT NULL DEFAULT 0,
			total_inserted BIGINT NOT NULL DEFAULT 0,
			total_updated BIGINT NOT NULL DEFAULT 0,
			total_unchanged BIGINT NOT NULL DEFAULT 0,
			total_failed BIGINT NOT NULL DEFAULT 0,
			errors VARCHAR NOT NULL DEFAULT '[]',
			error VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS dashboard_configs (
			brand_id BIGINT PRIMARY KEY,
			kpis VARCHAR NOT NULL DEFAULT '[]',
			charts VARCHAR NOT NULL DEFAULT '[]',
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version BIGINT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// migration is one versioned, one-shot schema change.
type migration struct {
	version     int64
	description string
	statements  []string
}

// migrations are applied in order, once each; applied versions are recorded
// in schema_migrations. Statements must be safe to run on a fresh schema
// because createTables always creates the latest shape.
var migrations = []migration{
	{
		version:     1,
		description: "widen keyword volume and position columns to BIGINT",
		statements: []string{
			`ALTER TABLE keywords ALTER COLUMN search_volume SET DATA TYPE BIGINT`,
			`ALTER TABLE keyword_rankings ALTER COLUMN "position" SET DATA TYPE BIGINT`,
			`ALTER TABLE keyword_rankings ALTER COLUMN previous_position SET DATA TYPE BIGINT`,
		},
	},
	{
		version:     2,
		description: "widen AI visibility id and position columns to BIGINT",
		statements: []string{
			`ALTER TABLE prompt_responses ALTER COLUMN mention_position SET DATA TYPE BIGINT`,
			`ALTER TABLE citations ALTER COLUMN "position" SET DATA TYPE BIGINT`,
		},
	},
}

// runVersionedMigrations applies any migrations not yet recorded.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	applied := make(map[int64]bool)
	rows, err := db.conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			closeQuietly(rows)
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return fmt.Errorf("failed to iterate schema_migrations: %w", err)
	}
	closeQuietly(rows)

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
			}
		}
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		logging.Info().Int64("version", m.version).Str("description", m.description).
			Msg("Applied schema migration")
	}

	return nil
}

// createIndexes builds query indexes for the dashboard read models.
func (db *DB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_ga4_metrics_brand_date ON ga4_daily_metrics (brand_id, metric_date)`,
		`CREATE INDEX IF NOT EXISTS idx_keywords_brand ON keywords (brand_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rankings_brand_checked ON keyword_rankings (brand_id, checked_on)`,
		`CREATE INDEX IF NOT EXISTS idx_rankings_keyword ON keyword_rankings (keyword_external_id)`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_brand ON prompts (brand_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_brand_responded ON prompt_responses (brand_id, responded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_brand ON citations (brand_id)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_response ON citations (response_external_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_brand_created ON sync_jobs (brand_id, created_at)`,
	}

	for _, stmt := range indexes {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
