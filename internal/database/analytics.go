// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/brandlens/brandlens/internal/metrics"
)

// KPI is one dashboard KPI card value with its prior-window comparison.
type KPI struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Previous float64 `json:"previous"`
	Delta    float64 `json:"delta"`
	DeltaPct float64 `json:"delta_pct"`
}

// TrafficPoint is one day of GA4 traffic for the traffic chart.
type TrafficPoint struct {
	Date           string  `json:"date"`
	Sessions       int64   `json:"sessions"`
	TotalUsers     int64   `json:"total_users"`
	PageViews      int64   `json:"page_views"`
	Conversions    int64   `json:"conversions"`
	EngagementRate float64 `json:"engagement_rate"`
}

// RankingPoint is one check date of aggregate keyword rankings.
type RankingPoint struct {
	Date        string  `json:"date"`
	AvgPosition float64 `json:"avg_position"`
	Top10       int64   `json:"top10"`
	Tracked     int64   `json:"tracked"`
}

// RankingMover is one keyword with a large position change on its latest check.
type RankingMover struct {
	KeywordExternalID int64  `json:"keyword_external_id"`
	Phrase            string `json:"phrase"`
	Position          int64  `json:"position"`
	PreviousPosition  int64  `json:"previous_position"`
	Delta             int64  `json:"delta"` // positive = moved up
}

// VisibilityPoint is one day of AI brand-visibility aggregates.
type VisibilityPoint struct {
	Date         string  `json:"date"`
	MentionRate  float64 `json:"mention_rate"`
	ShareOfVoice float64 `json:"share_of_voice"`
	Sentiment    float64 `json:"sentiment"`
	Responses    int64   `json:"responses"`
}

// CitedSource is one domain ranked by citation count.
type CitedSource struct {
	Domain      string  `json:"domain"`
	Citations   int64   `json:"citations"`
	AvgPosition float64 `json:"avg_position"`
}

// kpiWindow is the raw aggregate values of one time window.
type kpiWindow struct {
	sessions       float64
	totalUsers     float64
	conversions    float64
	engagementRate float64
	avgPosition    float64
	top10Keywords  float64
	mentionRate    float64
	sentiment      float64
	citations      float64
}

// GetKPIs computes every known KPI for [start, end) together with the
// immediately preceding window of the same length for delta rendering.
func (db *DB) GetKPIs(ctx context.Context, brandID int64, start, end time.Time) (map[string]KPI, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	current, err := db.kpiWindow(ctx, brandID, start, end)
	if err != nil {
		return nil, err
	}
	priorStart := start.Add(-end.Sub(start))
	prior, err := db.kpiWindow(ctx, brandID, priorStart, start)
	if err != nil {
		return nil, err
	}

	kpis := map[string]KPI{
		"sessions":        makeKPI("sessions", current.sessions, prior.sessions),
		"total_users":     makeKPI("total_users", current.totalUsers, prior.totalUsers),
		"conversions":     makeKPI("conversions", current.conversions, prior.conversions),
		"engagement_rate": makeKPI("engagement_rate", current.engagementRate, prior.engagementRate),
		"avg_position":    makeKPI("avg_position", current.avgPosition, prior.avgPosition),
		"top10_keywords":  makeKPI("top10_keywords", current.top10Keywords, prior.top10Keywords),
		"mention_rate":    makeKPI("mention_rate", current.mentionRate, prior.mentionRate),
		"sentiment":       makeKPI("sentiment", current.sentiment, prior.sentiment),
		"citations":       makeKPI("citations", current.citations, prior.citations),
	}
	return kpis, nil
}

func makeKPI(name string, value, previous float64) KPI {
	k := KPI{Name: name, Value: value, Previous: previous, Delta: value - previous}
	if previous != 0 {
		k.DeltaPct = (value - previous) / previous * 100
	}
	return k
}

// kpiWindow aggregates all KPI source tables over one window.
func (db *DB) kpiWindow(ctx context.Context, brandID int64, start, end time.Time) (kpiWindow, error) {
	var w kpiWindow

	qStart := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(sessions), 0), COALESCE(SUM(total_users), 0),
		        COALESCE(SUM(conversions), 0), COALESCE(AVG(engagement_rate), 0)
		 FROM ga4_daily_metrics
		 WHERE brand_id = ? AND metric_date >= ? AND metric_date < ?`,
		brandID, start, end).Scan(&w.sessions, &w.totalUsers, &w.conversions, &w.engagementRate)
	metrics.RecordDBQuery("select", "ga4_daily_metrics", qStart, err)
	if err != nil {
		return w, fmt.Errorf("failed to aggregate traffic KPIs: %w", err)
	}

	qStart = time.Now()
	err = db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(AVG("position"), 0),
		        COALESCE(COUNT(DISTINCT CASE WHEN "position" BETWEEN 1 AND 10 THEN keyword_external_id END), 0)
		 FROM keyword_rankings
		 WHERE brand_id = ? AND checked_on >= ? AND checked_on < ? AND "position" > 0`,
		brandID, start, end).Scan(&w.avgPosition, &w.top10Keywords)
	metrics.RecordDBQuery("select", "keyword_rankings", qStart, err)
	if err != nil {
		return w, fmt.Errorf("failed to aggregate ranking KPIs: %w", err)
	}

	qStart = time.Now()
	err = db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(CASE WHEN brand_mentioned THEN 1.0 ELSE 0.0 END), 0),
		        COALESCE(AVG(sentiment_score), 0)
		 FROM prompt_responses
		 WHERE brand_id = ? AND responded_at >= ? AND responded_at < ?`,
		brandID, start, end).Scan(&w.mentionRate, &w.sentiment)
	metrics.RecordDBQuery("select", "prompt_responses", qStart, err)
	if err != nil {
		return w, fmt.Errorf("failed to aggregate visibility KPIs: %w", err)
	}

	qStart = time.Now()
	err = db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(COUNT(*), 0)
		 FROM citations c
		 JOIN prompt_responses r ON r.external_id = c.response_external_id
		 WHERE c.brand_id = ? AND r.responded_at >= ? AND r.responded_at < ?`,
		brandID, start, end).Scan(&w.citations)
	metrics.RecordDBQuery("select", "citations", qStart, err)
	if err != nil {
		return w, fmt.Errorf("failed to aggregate citation KPIs: %w", err)
	}

	return w, nil
}

// GetTrafficSeries returns the per-day traffic chart for [start, end).
func (db *DB) GetTrafficSeries(ctx context.Context, brandID int64, start, end time.Time) ([]TrafficPoint, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	qStart := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT metric_date, SUM(sessions), SUM(total_users), SUM(page_views),
		        SUM(conversions), AVG(engagement_rate)
		 FROM ga4_daily_metrics
		 WHERE brand_id = ? AND metric_date >= ? AND metric_date < ?
		 GROUP BY metric_date ORDER BY metric_date`,
		brandID, start, end)
	metrics.RecordDBQuery("select", "ga4_daily_metrics", qStart, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query traffic series: %w", err)
	}
	defer closeQuietly(rows)

	points := make([]TrafficPoint, 0)
	for rows.Next() {
		var (
			p TrafficPoint
			d time.Time
		)
		if err := rows.Scan(&d, &p.Sessions, &p.TotalUsers, &p.PageViews,
			&p.Conversions, &p.EngagementRate); err != nil {
			return nil, fmt.Errorf("failed to scan traffic point: %w", err)
		}
		p.Date = d.Format("2006-01-02")
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetRankingSeries returns per-check-date ranking aggregates for [start, end).
func (db *DB) GetRankingSeries(ctx context.Context, brandID int64, start, end time.Time) ([]RankingPoint, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	qStart := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT checked_on,
		        AVG(CASE WHEN "position" > 0 THEN "position" END),
		        COUNT(DISTINCT CASE WHEN "position" BETWEEN 1 AND 10 THEN keyword_external_id END),
		        COUNT(DISTINCT keyword_external_id)
		 FROM keyword_rankings
		 WHERE brand_id = ? AND checked_on >= ? AND checked_on < ?
		 GROUP BY checked_on ORDER BY checked_on`,
		brandID, start, end)
	metrics.RecordDBQuery("select", "keyword_rankings", qStart, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking series: %w", err)
	}
	defer closeQuietly(rows)

	points := make([]RankingPoint, 0)
	for rows.Next() {
		var (
			p   RankingPoint
			d   time.Time
			avg *float64
		)
		if err := rows.Scan(&d, &avg, &p.Top10, &p.Tracked); err != nil {
			return nil, fmt.Errorf("failed to scan ranking point: %w", err)
		}
		p.Date = d.Format("2006-01-02")
		if avg != nil {
			p.AvgPosition = *avg
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetRankingMovers returns the keywords with the largest position change on
// their most recent check, biggest absolute move first.
func (db *DB) GetRankingMovers(ctx context.Context, brandID int64, limit int) ([]RankingMover, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	qStart := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT r.keyword_external_id, k.phrase, r."position", r.previous_position
		 FROM keyword_rankings r
		 JOIN keywords k ON k.external_id = r.keyword_external_id
		 WHERE r.brand_id = ?
		   AND r."position" > 0 AND r.previous_position > 0
		   AND r.checked_on = (
		     SELECT MAX(checked_on) FROM keyword_rankings
		     WHERE keyword_external_id = r.keyword_external_id AND brand_id = r.brand_id
		   )
		 ORDER BY ABS(r.previous_position - r."position") DESC
		 LIMIT ?`,
		brandID, limit)
	metrics.RecordDBQuery("select", "keyword_rankings", qStart, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking movers: %w", err)
	}
	defer closeQuietly(rows)

	movers := make([]RankingMover, 0, limit)
	for rows.Next() {
		var m RankingMover
		if err := rows.Scan(&m.KeywordExternalID, &m.Phrase, &m.Position,
			&m.PreviousPosition); err != nil {
			return nil, fmt.Errorf("failed to scan ranking mover: %w", err)
		}
		m.Delta = m.PreviousPosition - m.Position
		movers = append(movers, m)
	}
	return movers, rows.Err()
}

// GetVisibilitySeries returns per-day AI visibility aggregates for [start, end).
func (db *DB) GetVisibilitySeries(ctx context.Context, brandID int64, start, end time.Time) ([]VisibilityPoint, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	qStart := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT CAST(responded_at AS DATE) AS day,
		        AVG(CASE WHEN brand_mentioned THEN 1.0 ELSE 0.0 END),
		        AVG(share_of_voice), AVG(sentiment_score), COUNT(*)
		 FROM prompt_responses
		 WHERE brand_id = ? AND responded_at >= ? AND responded_at < ?
		 GROUP BY day ORDER BY day`,
		brandID, start, end)
	metrics.RecordDBQuery("select", "prompt_responses", qStart, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query visibility series: %w", err)
	}
	defer closeQuietly(rows)

	points := make([]VisibilityPoint, 0)
	for rows.Next() {
		var (
			p VisibilityPoint
			d time.Time
		)
		if err := rows.Scan(&d, &p.MentionRate, &p.ShareOfVoice, &p.Sentiment,
			&p.Responses); err != nil {
			return nil, fmt.Errorf("failed to scan visibility point: %w", err)
		}
		p.Date = d.Format("2006-01-02")
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetCitedSources returns the most-cited domains in [start, end), windowed
// by the citing response's timestamp.
func (db *DB) GetCitedSources(ctx context.Context, brandID int64, start, end time.Time, limit int) ([]CitedSource, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	qStart := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.domain, COUNT(*), COALESCE(AVG(c."position"), 0)
		 FROM citations c
		 JOIN prompt_responses r ON r.external_id = c.response_external_id
		 WHERE c.brand_id = ? AND r.responded_at >= ? AND r.responded_at < ?
		 GROUP BY c.domain ORDER BY COUNT(*) DESC
		 LIMIT ?`,
		brandID, start, end, limit)
	metrics.RecordDBQuery("select", "citations", qStart, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query cited sources: %w", err)
	}
	defer closeQuietly(rows)

	sources := make([]CitedSource, 0, limit)
	for rows.Next() {
		var s CitedSource
		if err := rows.Scan(&s.Domain, &s.Citations, &s.AvgPosition); err != nil {
			return nil, fmt.Errorf("failed to scan cited source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}
