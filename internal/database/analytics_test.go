// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/brandlens/brandlens/internal/models"
)

// seedAnalytics loads two weeks of synthetic data: days 0-6 are the prior
// window, days 7-13 the current window.
func seedAnalytics(t *testing.T, db *DB, brandID int64) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	var ga4 []models.GA4DailyMetric
	for i := 0; i < 14; i++ {
		d := day(i)
		sessions := int64(100)
		if i >= 7 {
			sessions = 200 // current window doubles traffic
		}
		ga4 = append(ga4, models.GA4DailyMetric{
			BrandID:        brandID,
			ExternalKey:    fmt.Sprintf("123456789:%s", d.Format("20060102")),
			MetricDate:     d,
			Sessions:       sessions,
			TotalUsers:     sessions / 2,
			PageViews:      sessions * 3,
			Conversions:    5,
			EngagementRate: 0.5,
			SyncedAt:       now,
		})
	}
	if _, err := db.ReconcileGA4DailyMetrics(ctx, ga4, 500, nil); err != nil {
		t.Fatalf("failed to seed ga4 metrics: %v", err)
	}

	keywords := []models.Keyword{
		{ExternalID: 1, BrandID: brandID, Phrase: "brand analytics", SearchVolume: 1000, Tracked: true, SyncedAt: now, UpdatedAt: now},
		{ExternalID: 2, BrandID: brandID, Phrase: "marketing dashboard", SearchVolume: 500, Tracked: true, SyncedAt: now, UpdatedAt: now},
	}
	if _, err := db.ReconcileKeywords(ctx, keywords, 500, nil); err != nil {
		t.Fatalf("failed to seed keywords: %v", err)
	}

	rankings := []models.KeywordRanking{
		{ExternalID: 10, KeywordExternalID: 1, BrandID: brandID, CheckedOn: day(8), Position: 3, PreviousPosition: 8, SyncedAt: now},
		{ExternalID: 11, KeywordExternalID: 2, BrandID: brandID, CheckedOn: day(8), Position: 15, PreviousPosition: 12, SyncedAt: now},
	}
	if _, err := db.ReconcileKeywordRankings(ctx, rankings, 500, nil); err != nil {
		t.Fatalf("failed to seed rankings: %v", err)
	}

	prompts := []models.Prompt{
		{ExternalID: 100, BrandID: brandID, Text: "best analytics tools", Topic: "tools", Active: true, SyncedAt: now, UpdatedAt: now},
	}
	if _, err := db.ReconcilePrompts(ctx, prompts, 500, nil); err != nil {
		t.Fatalf("failed to seed prompts: %v", err)
	}

	responses := []models.PromptResponse{
		{ExternalID: 200, PromptExternalID: 100, BrandID: brandID, Model: "gpt", RespondedAt: day(8).Add(10 * time.Hour), BrandMentioned: true, MentionPosition: 2, SentimentScore: 0.8, ShareOfVoice: 0.4, SyncedAt: now},
		{ExternalID: 201, PromptExternalID: 100, BrandID: brandID, Model: "gpt", RespondedAt: day(9).Add(10 * time.Hour), BrandMentioned: false, SentimentScore: 0.1, ShareOfVoice: 0, SyncedAt: now},
	}
	if _, err := db.ReconcilePromptResponses(ctx, responses, 500, nil); err != nil {
		t.Fatalf("failed to seed responses: %v", err)
	}

	citations := []models.Citation{
		{ExternalID: 300, ResponseExternalID: 200, BrandID: brandID, URL: "https://example.com/a", Domain: "example.com", Position: 1, SyncedAt: now},
		{ExternalID: 301, ResponseExternalID: 200, BrandID: brandID, URL: "https://example.com/b", Domain: "example.com", Position: 3, SyncedAt: now},
		{ExternalID: 302, ResponseExternalID: 201, BrandID: brandID, URL: "https://other.org/c", Domain: "other.org", Position: 2, SyncedAt: now},
	}
	if _, err := db.ReconcileCitations(ctx, citations, 500, nil); err != nil {
		t.Fatalf("failed to seed citations: %v", err)
	}
}

func TestGetKPIsWithPriorWindowDeltas(t *testing.T) {
	db := newTestDB(t)
	brand := newTestBrand(t, db, "acme")
	seedAnalytics(t, db, brand.ID)

	kpis, err := db.GetKPIs(context.Background(), brand.ID, day(7), day(14))
	if err != nil {
		t.Fatalf("failed to get KPIs: %v", err)
	}

	sessions, ok := kpis["sessions"]
	if !ok {
		t.Fatal("missing sessions KPI")
	}
	if sessions.Value != 1400 { // 7 days * 200
		t.Errorf("expected 1400 sessions, got %v", sessions.Value)
	}
	if sessions.Previous != 700 { // 7 days * 100
		t.Errorf("expected 700 prior sessions, got %v", sessions.Previous)
	}
	if math.Abs(sessions.DeltaPct-100) > 1e-9 {
		t.Errorf("expected +100%% delta, got %v", sessions.DeltaPct)
	}

	mention, ok := kpis["mention_rate"]
	if !ok {
		t.Fatal("missing mention_rate KPI")
	}
	if math.Abs(mention.Value-0.5) > 1e-9 { // 1 of 2 responses mentioned
		t.Errorf("expected mention rate 0.5, got %v", mention.Value)
	}

	if kpis["citations"].Value != 3 {
		t.Errorf("expected 3 citations, got %v", kpis["citations"].Value)
	}
	if kpis["top10_keywords"].Value != 1 {
		t.Errorf("expected 1 top10 keyword, got %v", kpis["top10_keywords"].Value)
	}
}

func TestGetTrafficSeries(t *testing.T) {
	db := newTestDB(t)
	brand := newTestBrand(t, db, "acme")
	seedAnalytics(t, db, brand.ID)

	points, err := db.GetTrafficSeries(context.Background(), brand.ID, day(7), day(14))
	if err != nil {
		t.Fatalf("failed to get traffic series: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	if points[0].Date != day(7).Format("2006-01-02") {
		t.Errorf("expected series to start at %s, got %s", day(7).Format("2006-01-02"), points[0].Date)
	}
	for _, p := range points {
		if p.Sessions != 200 {
			t.Errorf("expected 200 sessions on %s, got %d", p.Date, p.Sessions)
		}
	}
}

func TestGetRankingMovers(t *testing.T) {
	db := newTestDB(t)
	brand := newTestBrand(t, db, "acme")
	seedAnalytics(t, db, brand.ID)

	movers, err := db.GetRankingMovers(context.Background(), brand.ID, 10)
	if err != nil {
		t.Fatalf("failed to get ranking movers: %v", err)
	}
	if len(movers) != 2 {
		t.Fatalf("expected 2 movers, got %d", len(movers))
	}
	// Keyword 1 moved 8 -> 3 (+5), keyword 2 moved 12 -> 15 (-3).
	if movers[0].KeywordExternalID != 1 || movers[0].Delta != 5 {
		t.Errorf("expected keyword 1 with delta +5 first, got %+v", movers[0])
	}
	if movers[1].Delta != -3 {
		t.Errorf("expected keyword 2 with delta -3, got %+v", movers[1])
	}
}

func TestGetVisibilitySeries(t *testing.T) {
	db := newTestDB(t)
	brand := newTestBrand(t, db, "acme")
	seedAnalytics(t, db, brand.ID)

	points, err := db.GetVisibilitySeries(context.Background(), brand.ID, day(7), day(14))
	if err != nil {
		t.Fatalf("failed to get visibility series: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if math.Abs(points[0].MentionRate-1.0) > 1e-9 {
		t.Errorf("expected mention rate 1.0 on first day, got %v", points[0].MentionRate)
	}
	if points[0].Responses != 1 {
		t.Errorf("expected 1 response on first day, got %d", points[0].Responses)
	}
}

func TestGetCitedSources(t *testing.T) {
	db := newTestDB(t)
	brand := newTestBrand(t, db, "acme")
	seedAnalytics(t, db, brand.ID)

	sources, err := db.GetCitedSources(context.Background(), brand.ID, day(7), day(14), 10)
	if err != nil {
		t.Fatalf("failed to get cited sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(sources))
	}
	if sources[0].Domain != "example.com" || sources[0].Citations != 2 {
		t.Errorf("expected example.com with 2 citations first, got %+v", sources[0])
	}
	if math.Abs(sources[0].AvgPosition-2.0) > 1e-9 {
		t.Errorf("expected avg position 2.0, got %v", sources[0].AvgPosition)
	}
}

func TestKPIsEmptyDatabase(t *testing.T) {
	db := newTestDB(t)
	brand := newTestBrand(t, db, "empty")

	kpis, err := db.GetKPIs(context.Background(), brand.ID, day(7), day(14))
	if err != nil {
		t.Fatalf("failed to get KPIs on empty data: %v", err)
	}
	for name, k := range kpis {
		if k.Value != 0 || k.Previous != 0 || k.DeltaPct != 0 {
			t.Errorf("expected zero KPI %s, got %+v", name, k)
		}
	}
}
