// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/brandlens/brandlens/internal/database"
	"github.com/brandlens/brandlens/internal/logging"
	"github.com/brandlens/brandlens/internal/models"
	"github.com/brandlens/brandlens/internal/models/ga4"
)

// syncGA4 fetches the lookback window of daily traffic for a brand's GA4
// property and reconciles it into ga4_daily_metrics.
func (m *Manager) syncGA4(ctx context.Context, brand *models.Brand, job *models.SyncJob) (database.ReconcileStats, error) {
	var stats database.ReconcileStats

	if brand.GA4PropertyID == "" {
		return stats, fmt.Errorf("brand %q has no GA4 property configured", brand.Slug)
	}

	end := time.Now().UTC()
	start := end.Add(-m.cfg.Sync.Lookback)

	rows, err := m.ga4.FetchDailyRows(ctx, brand.GA4PropertyID, start, end)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch GA4 report: %w", err)
	}

	records, parseErrors := mapGA4Rows(brand.ID, brand.GA4PropertyID, rows)

	stats, err = m.db.ReconcileGA4DailyMetrics(ctx, records, m.cfg.Sync.BatchSize,
		m.jobProgressPhase(ctx, job, int64(len(rows)), 0, 100))
	stats.Fetched = int64(len(rows))
	stats.Failed += int64(len(parseErrors))
	stats.Errors = append(stats.Errors, parseErrors...)
	return stats, err
}

// mapGA4Rows converts runReport rows into daily metric records. GA4 returns
// every value as a string; rows that fail to parse are reported per row
// rather than aborting the fetch.
func mapGA4Rows(brandID int64, property string, rows []ga4.Row) ([]models.GA4DailyMetric, []models.SyncJobError) {
	now := time.Now().UTC()
	records := make([]models.GA4DailyMetric, 0, len(rows))
	var parseErrors []models.SyncJobError

	for _, row := range rows {
		record, err := mapGA4Row(brandID, property, row, now)
		if err != nil {
			key := property + ":?"
			if len(row.DimensionValues) > 0 {
				key = property + ":" + row.DimensionValues[0].Value
			}
			logging.Warn().Err(err).Str("external_key", key).Msg("Skipping malformed GA4 row")
			parseErrors = append(parseErrors, models.SyncJobError{
				ExternalID: key,
				Error:      err.Error(),
			})
			continue
		}
		records = append(records, record)
	}
	return records, parseErrors
}

func mapGA4Row(brandID int64, property string, row ga4.Row, syncedAt time.Time) (models.GA4DailyMetric, error) {
	var m models.GA4DailyMetric

	if len(row.DimensionValues) < 1 {
		return m, fmt.Errorf("row has no date dimension")
	}
	if len(row.MetricValues) < len(ga4Metrics) {
		return m, fmt.Errorf("row has %d metric values, want %d", len(row.MetricValues), len(ga4Metrics))
	}

	// GA4 renders the date dimension as YYYYMMDD.
	dateStr := row.DimensionValues[0].Value
	metricDate, err := time.ParseInLocation("20060102", dateStr, time.UTC)
	if err != nil {
		return m, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	ints := make([]int64, 5)
	for i := 0; i < 5; i++ {
		// Count metrics sometimes arrive as "123.0"; parse through float.
		f, err := strconv.ParseFloat(row.MetricValues[i].Value, 64)
		if err != nil {
			return m, fmt.Errorf("invalid %s value %q: %w", ga4Metrics[i].Name, row.MetricValues[i].Value, err)
		}
		ints[i] = int64(f)
	}
	engagementRate, err := strconv.ParseFloat(row.MetricValues[5].Value, 64)
	if err != nil {
		return m, fmt.Errorf("invalid engagementRate value %q: %w", row.MetricValues[5].Value, err)
	}
	avgDuration, err := strconv.ParseFloat(row.MetricValues[6].Value, 64)
	if err != nil {
		return m, fmt.Errorf("invalid averageSessionDuration value %q: %w", row.MetricValues[6].Value, err)
	}

	return models.GA4DailyMetric{
		BrandID:            brandID,
		ExternalKey:        property + ":" + dateStr,
		MetricDate:         metricDate,
		Sessions:           ints[0],
		TotalUsers:         ints[1],
		NewUsers:           ints[2],
		PageViews:          ints[3],
		Conversions:        ints[4],
		EngagementRate:     engagementRate,
		AvgSessionDuration: avgDuration,
		SyncedAt:           syncedAt,
	}, nil
}
