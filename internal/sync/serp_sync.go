// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/brandlens/brandlens/internal/database"
	"github.com/brandlens/brandlens/internal/logging"
	"github.com/brandlens/brandlens/internal/models"
	"github.com/brandlens/brandlens/internal/models/serp"
)

// syncSERP fetches a brand's tracked keywords and the lookback window of
// ranking observations, reconciling both. Keywords cover the first half of
// the job's progress range, rankings the second.
func (m *Manager) syncSERP(ctx context.Context, brand *models.Brand, job *models.SyncJob) (database.ReconcileStats, error) {
	var total database.ReconcileStats

	if brand.SERPProjectID == 0 {
		return total, fmt.Errorf("brand %q has no SERP project configured", brand.Slug)
	}

	keywords, err := m.serp.ListKeywords(ctx, brand.SERPProjectID)
	if err != nil {
		return total, fmt.Errorf("failed to fetch keywords: %w", err)
	}

	kwStats, err := m.db.ReconcileKeywords(ctx, mapSERPKeywords(brand.ID, keywords),
		m.cfg.Sync.BatchSize, m.jobProgressPhase(ctx, job, int64(len(keywords)), 0, 50))
	total.Add(kwStats)
	if err != nil {
		return total, fmt.Errorf("failed to reconcile keywords: %w", err)
	}

	end := time.Now().UTC()
	start := end.Add(-m.cfg.Sync.Lookback)
	rankings, err := m.serp.ListRankings(ctx, brand.SERPProjectID, start, end)
	if err != nil {
		return total, fmt.Errorf("failed to fetch rankings: %w", err)
	}

	records, parseErrors := mapSERPRankings(brand.ID, rankings)
	fetched := int64(len(keywords) + len(rankings))
	rkStats, err := m.db.ReconcileKeywordRankings(ctx, records,
		m.cfg.Sync.BatchSize, m.jobProgressPhase(ctx, job, fetched, 50, 50))
	total.Add(rkStats)
	total.Fetched = fetched
	total.Failed += int64(len(parseErrors))
	total.Errors = append(total.Errors, parseErrors...)
	if err != nil {
		return total, fmt.Errorf("failed to reconcile rankings: %w", err)
	}
	return total, nil
}

func mapSERPKeywords(brandID int64, keywords []serp.Keyword) []models.Keyword {
	now := time.Now().UTC()
	records := make([]models.Keyword, 0, len(keywords))
	for _, k := range keywords {
		records = append(records, models.Keyword{
			ExternalID:   k.ID,
			BrandID:      brandID,
			Phrase:       k.Phrase,
			SearchVolume: k.SearchVolume,
			Difficulty:   k.Difficulty,
			Tracked:      k.Tracked,
			SyncedAt:     now,
			UpdatedAt:    now,
		})
	}
	return records
}

// mapSERPRankings converts ranking observations; rows with unparsable dates
// are reported per row rather than aborting the fetch.
func mapSERPRankings(brandID int64, rankings []serp.Ranking) ([]models.KeywordRanking, []models.SyncJobError) {
	now := time.Now().UTC()
	records := make([]models.KeywordRanking, 0, len(rankings))
	var parseErrors []models.SyncJobError

	for _, r := range rankings {
		checkedOn, err := time.ParseInLocation("2006-01-02", r.CheckedOn, time.UTC)
		if err != nil {
			logging.Warn().Err(err).Int64("external_id", r.ID).
				Str("checked_on", r.CheckedOn).Msg("Skipping malformed ranking row")
			parseErrors = append(parseErrors, models.SyncJobError{
				ExternalID: fmt.Sprintf("%d", r.ID),
				Error:      fmt.Sprintf("invalid checked_on date %q", r.CheckedOn),
			})
			continue
		}
		records = append(records, models.KeywordRanking{
			ExternalID:        r.ID,
			KeywordExternalID: r.KeywordID,
			BrandID:           brandID,
			CheckedOn:         checkedOn,
			Position:          r.Position,
			PreviousPosition:  r.PreviousPosition,
			RankingURL:        r.URL,
			SERPFeatures:      r.SERPFeatures,
			SyncedAt:          now,
		})
	}
	return records, parseErrors
}
