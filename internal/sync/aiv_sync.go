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
	"github.com/brandlens/brandlens/internal/models/aiv"
)

// syncAIV fetches a brand's tracked prompts, the lookback window of model
// responses, and their citations. The three phases split the job's progress
// range roughly by expected volume.
func (m *Manager) syncAIV(ctx context.Context, brand *models.Brand, job *models.SyncJob) (database.ReconcileStats, error) {
	var total database.ReconcileStats

	if brand.AIVWorkspaceID == "" {
		return total, fmt.Errorf("brand %q has no AIV workspace configured", brand.Slug)
	}

	prompts, err := m.aiv.ListPrompts(ctx, brand.AIVWorkspaceID)
	if err != nil {
		return total, fmt.Errorf("failed to fetch prompts: %w", err)
	}
	pStats, err := m.db.ReconcilePrompts(ctx, mapAIVPrompts(brand.ID, prompts),
		m.cfg.Sync.BatchSize, m.jobProgressPhase(ctx, job, int64(len(prompts)), 0, 20))
	total.Add(pStats)
	if err != nil {
		return total, fmt.Errorf("failed to reconcile prompts: %w", err)
	}

	end := time.Now().UTC()
	start := end.Add(-m.cfg.Sync.Lookback)

	responses, err := m.aiv.ListResponses(ctx, brand.AIVWorkspaceID, start, end)
	if err != nil {
		return total, fmt.Errorf("failed to fetch responses: %w", err)
	}
	respRecords, parseErrors := mapAIVResponses(brand.ID, responses)
	rStats, err := m.db.ReconcilePromptResponses(ctx, respRecords,
		m.cfg.Sync.BatchSize, m.jobProgressPhase(ctx, job,
			int64(len(prompts)+len(responses)), 20, 50))
	total.Add(rStats)
	total.Failed += int64(len(parseErrors))
	total.Errors = append(total.Errors, parseErrors...)
	if err != nil {
		return total, fmt.Errorf("failed to reconcile responses: %w", err)
	}

	citations, err := m.aiv.ListCitations(ctx, brand.AIVWorkspaceID, start, end)
	if err != nil {
		return total, fmt.Errorf("failed to fetch citations: %w", err)
	}
	fetched := int64(len(prompts) + len(responses) + len(citations))
	cStats, err := m.db.ReconcileCitations(ctx, mapAIVCitations(brand.ID, citations),
		m.cfg.Sync.BatchSize, m.jobProgressPhase(ctx, job, fetched, 70, 30))
	total.Add(cStats)
	total.Fetched = fetched
	if err != nil {
		return total, fmt.Errorf("failed to reconcile citations: %w", err)
	}
	return total, nil
}

func mapAIVPrompts(brandID int64, prompts []aiv.Prompt) []models.Prompt {
	now := time.Now().UTC()
	records := make([]models.Prompt, 0, len(prompts))
	for _, p := range prompts {
		records = append(records, models.Prompt{
			ExternalID: p.ID,
			BrandID:    brandID,
			Text:       p.Text,
			Topic:      p.Topic,
			Active:     p.Active,
			SyncedAt:   now,
			UpdatedAt:  now,
		})
	}
	return records
}

// mapAIVResponses converts model responses; rows with unparsable timestamps
// are reported per row rather than aborting the fetch.
func mapAIVResponses(brandID int64, responses []aiv.Response) ([]models.PromptResponse, []models.SyncJobError) {
	now := time.Now().UTC()
	records := make([]models.PromptResponse, 0, len(responses))
	var parseErrors []models.SyncJobError

	for _, r := range responses {
		respondedAt, err := time.Parse(time.RFC3339, r.RespondedAt)
		if err != nil {
			logging.Warn().Err(err).Int64("external_id", r.ID).
				Str("responded_at", r.RespondedAt).Msg("Skipping malformed response row")
			parseErrors = append(parseErrors, models.SyncJobError{
				ExternalID: fmt.Sprintf("%d", r.ID),
				Error:      fmt.Sprintf("invalid responded_at timestamp %q", r.RespondedAt),
			})
			continue
		}
		records = append(records, models.PromptResponse{
			ExternalID:       r.ID,
			PromptExternalID: r.PromptID,
			BrandID:          brandID,
			Model:            r.Model,
			RespondedAt:      respondedAt.UTC().Truncate(time.Microsecond),
			BrandMentioned:   r.BrandMentioned,
			MentionPosition:  r.MentionPosition,
			SentimentScore:   r.SentimentScore,
			ShareOfVoice:     r.ShareOfVoice,
			SyncedAt:         now,
		})
	}
	return records, parseErrors
}

func mapAIVCitations(brandID int64, citations []aiv.Citation) []models.Citation {
	now := time.Now().UTC()
	records := make([]models.Citation, 0, len(citations))
	for _, c := range citations {
		records = append(records, models.Citation{
			ExternalID:         c.ID,
			ResponseExternalID: c.ResponseID,
			BrandID:            brandID,
			URL:                c.URL,
			Domain:             c.Domain,
			Title:              c.Title,
			Position:           c.Position,
			SyncedAt:           now,
		})
	}
	return records
}
