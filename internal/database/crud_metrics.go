// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/brandlens/brandlens/internal/models"
)

// ga4MetricBinding maps GA4 daily metrics onto ga4_daily_metrics. GA4 rows
// have no upstream id, so the external key is "<property>:<YYYYMMDD>".
var ga4MetricBinding = binding[models.GA4DailyMetric]{
	table:     "ga4_daily_metrics",
	keyColumn: "external_key",
	columns: []string{
		"external_key", "brand_id", "metric_date", "sessions", "total_users",
		"new_users", "page_views", "conversions", "engagement_rate",
		"avg_session_duration", "synced_at",
	},
	key:    func(m models.GA4DailyMetric) string { return m.ExternalKey },
	keyArg: func(m models.GA4DailyMetric) any { return m.ExternalKey },
	args: func(m models.GA4DailyMetric) []any {
		return []any{
			m.ExternalKey, m.BrandID, m.MetricDate, m.Sessions, m.TotalUsers,
			m.NewUsers, m.PageViews, m.Conversions, m.EngagementRate,
			m.AvgSessionDuration, m.SyncedAt,
		}
	},
	updateSet: []string{
		"brand_id", "metric_date", "sessions", "total_users", "new_users",
		"page_views", "conversions", "engagement_rate", "avg_session_duration",
		"synced_at",
	},
	selectColumns: []string{
		"external_key", "brand_id", "metric_date", "sessions", "total_users",
		"new_users", "page_views", "conversions", "engagement_rate",
		"avg_session_duration",
	},
	scan: func(r rowScanner) (string, models.GA4DailyMetric, error) {
		var m models.GA4DailyMetric
		err := r.Scan(&m.ExternalKey, &m.BrandID, &m.MetricDate, &m.Sessions,
			&m.TotalUsers, &m.NewUsers, &m.PageViews, &m.Conversions,
			&m.EngagementRate, &m.AvgSessionDuration)
		return m.ExternalKey, m, err
	},
	equal: func(a, b models.GA4DailyMetric) bool {
		return a.BrandID == b.BrandID &&
			sameDay(a.MetricDate, b.MetricDate) &&
			a.Sessions == b.Sessions &&
			a.TotalUsers == b.TotalUsers &&
			a.NewUsers == b.NewUsers &&
			a.PageViews == b.PageViews &&
			a.Conversions == b.Conversions &&
			a.EngagementRate == b.EngagementRate &&
			a.AvgSessionDuration == b.AvgSessionDuration
	},
	validate: func(m models.GA4DailyMetric) error {
		if m.ExternalKey == "" {
			return fmt.Errorf("empty external key")
		}
		if m.BrandID <= 0 {
			return fmt.Errorf("invalid brand id %d", m.BrandID)
		}
		if m.MetricDate.IsZero() {
			return fmt.Errorf("missing metric date")
		}
		if m.Sessions < 0 || m.TotalUsers < 0 || m.PageViews < 0 {
			return fmt.Errorf("negative metric value")
		}
		return nil
	},
}

// sameInstant compares two timestamps at microsecond precision. TIMESTAMP
// columns round-trip at microseconds, so sub-microsecond digits in provider
// timestamps must not count as changes.
func sameInstant(a, b time.Time) bool {
	return a.UTC().Truncate(time.Microsecond).Equal(b.UTC().Truncate(time.Microsecond))
}

// sameDay compares two timestamps at day precision. DATE columns come back
// at midnight UTC regardless of what was written.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ReconcileGA4DailyMetrics upserts a fetched window of GA4 daily metrics.
func (db *DB) ReconcileGA4DailyMetrics(ctx context.Context, records []models.GA4DailyMetric, batchSize int, progress func(done, total int64)) (ReconcileStats, error) {
	return reconcile(ctx, db, &ga4MetricBinding, records, batchSize, progress)
}
