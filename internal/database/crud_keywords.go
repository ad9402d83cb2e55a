// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/brandlens/brandlens/internal/models"
)

// keywordBinding maps SERP keywords onto keywords, keyed by the provider's
// 64-bit keyword id.
var keywordBinding = binding[models.Keyword]{
	table:     "keywords",
	keyColumn: "external_id",
	columns: []string{
		"external_id", "brand_id", "phrase", "search_volume", "difficulty",
		"tracked", "synced_at", "updated_at",
	},
	key:    func(k models.Keyword) string { return strconv.FormatInt(k.ExternalID, 10) },
	keyArg: func(k models.Keyword) any { return k.ExternalID },
	args: func(k models.Keyword) []any {
		return []any{
			k.ExternalID, k.BrandID, k.Phrase, k.SearchVolume, k.Difficulty,
			k.Tracked, k.SyncedAt, k.UpdatedAt,
		}
	},
	updateSet: []string{
		"brand_id", "phrase", "search_volume", "difficulty", "tracked",
		"synced_at", "updated_at",
	},
	selectColumns: []string{
		"external_id", "brand_id", "phrase", "search_volume", "difficulty", "tracked",
	},
	scan: func(r rowScanner) (string, models.Keyword, error) {
		var k models.Keyword
		err := r.Scan(&k.ExternalID, &k.BrandID, &k.Phrase, &k.SearchVolume,
			&k.Difficulty, &k.Tracked)
		return strconv.FormatInt(k.ExternalID, 10), k, err
	},
	equal: func(a, b models.Keyword) bool {
		return a.BrandID == b.BrandID &&
			a.Phrase == b.Phrase &&
			a.SearchVolume == b.SearchVolume &&
			a.Difficulty == b.Difficulty &&
			a.Tracked == b.Tracked
	},
	validate: func(k models.Keyword) error {
		if k.ExternalID <= 0 {
			return fmt.Errorf("invalid external id %d", k.ExternalID)
		}
		if k.BrandID <= 0 {
			return fmt.Errorf("invalid brand id %d", k.BrandID)
		}
		if k.Phrase == "" {
			return fmt.Errorf("empty keyword phrase")
		}
		if k.SearchVolume < 0 {
			return fmt.Errorf("negative search volume %d", k.SearchVolume)
		}
		return nil
	},
}

// rankingBinding maps dated ranking observations onto keyword_rankings.
var rankingBinding = binding[models.KeywordRanking]{
	table:     "keyword_rankings",
	keyColumn: "external_id",
	columns: []string{
		"external_id", "keyword_external_id", "brand_id", "checked_on",
		`"position"`, "previous_position", "ranking_url", "serp_features",
		"synced_at",
	},
	key:    func(r models.KeywordRanking) string { return strconv.FormatInt(r.ExternalID, 10) },
	keyArg: func(r models.KeywordRanking) any { return r.ExternalID },
	args: func(r models.KeywordRanking) []any {
		return []any{
			r.ExternalID, r.KeywordExternalID, r.BrandID, r.CheckedOn,
			r.Position, r.PreviousPosition, r.RankingURL, r.SERPFeatures,
			r.SyncedAt,
		}
	},
	updateSet: []string{
		"keyword_external_id", "brand_id", "checked_on", `"position"`,
		"previous_position", "ranking_url", "serp_features", "synced_at",
	},
	selectColumns: []string{
		"external_id", "keyword_external_id", "brand_id", "checked_on",
		`"position"`, "previous_position", "ranking_url", "serp_features",
	},
	scan: func(rs rowScanner) (string, models.KeywordRanking, error) {
		var r models.KeywordRanking
		err := rs.Scan(&r.ExternalID, &r.KeywordExternalID, &r.BrandID,
			&r.CheckedOn, &r.Position, &r.PreviousPosition, &r.RankingURL,
			&r.SERPFeatures)
		return strconv.FormatInt(r.ExternalID, 10), r, err
	},
	equal: func(a, b models.KeywordRanking) bool {
		return a.KeywordExternalID == b.KeywordExternalID &&
			a.BrandID == b.BrandID &&
			sameDay(a.CheckedOn, b.CheckedOn) &&
			a.Position == b.Position &&
			a.PreviousPosition == b.PreviousPosition &&
			a.RankingURL == b.RankingURL &&
			a.SERPFeatures == b.SERPFeatures
	},
	validate: func(r models.KeywordRanking) error {
		if r.ExternalID <= 0 {
			return fmt.Errorf("invalid external id %d", r.ExternalID)
		}
		if r.KeywordExternalID <= 0 {
			return fmt.Errorf("invalid keyword id %d", r.KeywordExternalID)
		}
		if r.BrandID <= 0 {
			return fmt.Errorf("invalid brand id %d", r.BrandID)
		}
		if r.CheckedOn.IsZero() {
			return fmt.Errorf("missing checked_on date")
		}
		if r.Position < 0 {
			return fmt.Errorf("negative position %d", r.Position)
		}
		return nil
	},
}

// ReconcileKeywords upserts a fetched set of tracked keywords.
func (db *DB) ReconcileKeywords(ctx context.Context, records []models.Keyword, batchSize int, progress func(done, total int64)) (ReconcileStats, error) {
	return reconcile(ctx, db, &keywordBinding, records, batchSize, progress)
}

// ReconcileKeywordRankings upserts a fetched window of ranking observations.
func (db *DB) ReconcileKeywordRankings(ctx context.Context, records []models.KeywordRanking, batchSize int, progress func(done, total int64)) (ReconcileStats, error) {
	return reconcile(ctx, db, &rankingBinding, records, batchSize, progress)
}
