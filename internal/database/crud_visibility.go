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

// promptBinding maps tracked AI-visibility prompts onto prompts.
var promptBinding = binding[models.Prompt]{
	table:     "prompts",
	keyColumn: "external_id",
	columns: []string{
		"external_id", "brand_id", "text", "topic", "active",
		"synced_at", "updated_at",
	},
	key:    func(p models.Prompt) string { return strconv.FormatInt(p.ExternalID, 10) },
	keyArg: func(p models.Prompt) any { return p.ExternalID },
	args: func(p models.Prompt) []any {
		return []any{
			p.ExternalID, p.BrandID, p.Text, p.Topic, p.Active,
			p.SyncedAt, p.UpdatedAt,
		}
	},
	updateSet: []string{
		"brand_id", "text", "topic", "active", "synced_at", "updated_at",
	},
	selectColumns: []string{
		"external_id", "brand_id", "text", "topic", "active",
	},
	scan: func(r rowScanner) (string, models.Prompt, error) {
		var p models.Prompt
		err := r.Scan(&p.ExternalID, &p.BrandID, &p.Text, &p.Topic, &p.Active)
		return strconv.FormatInt(p.ExternalID, 10), p, err
	},
	equal: func(a, b models.Prompt) bool {
		return a.BrandID == b.BrandID &&
			a.Text == b.Text &&
			a.Topic == b.Topic &&
			a.Active == b.Active
	},
	validate: func(p models.Prompt) error {
		if p.ExternalID <= 0 {
			return fmt.Errorf("invalid external id %d", p.ExternalID)
		}
		if p.BrandID <= 0 {
			return fmt.Errorf("invalid brand id %d", p.BrandID)
		}
		if p.Text == "" {
			return fmt.Errorf("empty prompt text")
		}
		return nil
	},
}

// responseBinding maps scored model responses onto prompt_responses.
var responseBinding = binding[models.PromptResponse]{
	table:     "prompt_responses",
	keyColumn: "external_id",
	columns: []string{
		"external_id", "prompt_external_id", "brand_id", "model",
		"responded_at", "brand_mentioned", "mention_position",
		"sentiment_score", "share_of_voice", "synced_at",
	},
	key:    func(r models.PromptResponse) string { return strconv.FormatInt(r.ExternalID, 10) },
	keyArg: func(r models.PromptResponse) any { return r.ExternalID },
	args: func(r models.PromptResponse) []any {
		return []any{
			r.ExternalID, r.PromptExternalID, r.BrandID, r.Model,
			r.RespondedAt, r.BrandMentioned, r.MentionPosition,
			r.SentimentScore, r.ShareOfVoice, r.SyncedAt,
		}
	},
	updateSet: []string{
		"prompt_external_id", "brand_id", "model", "responded_at",
		"brand_mentioned", "mention_position", "sentiment_score",
		"share_of_voice", "synced_at",
	},
	selectColumns: []string{
		"external_id", "prompt_external_id", "brand_id", "model",
		"responded_at", "brand_mentioned", "mention_position",
		"sentiment_score", "share_of_voice",
	},
	scan: func(rs rowScanner) (string, models.PromptResponse, error) {
		var r models.PromptResponse
		err := rs.Scan(&r.ExternalID, &r.PromptExternalID, &r.BrandID, &r.Model,
			&r.RespondedAt, &r.BrandMentioned, &r.MentionPosition,
			&r.SentimentScore, &r.ShareOfVoice)
		return strconv.FormatInt(r.ExternalID, 10), r, err
	},
	equal: func(a, b models.PromptResponse) bool {
		return a.PromptExternalID == b.PromptExternalID &&
			a.BrandID == b.BrandID &&
			a.Model == b.Model &&
			sameInstant(a.RespondedAt, b.RespondedAt) &&
			a.BrandMentioned == b.BrandMentioned &&
			a.MentionPosition == b.MentionPosition &&
			a.SentimentScore == b.SentimentScore &&
			a.ShareOfVoice == b.ShareOfVoice
	},
	validate: func(r models.PromptResponse) error {
		if r.ExternalID <= 0 {
			return fmt.Errorf("invalid external id %d", r.ExternalID)
		}
		if r.PromptExternalID <= 0 {
			return fmt.Errorf("invalid prompt id %d", r.PromptExternalID)
		}
		if r.BrandID <= 0 {
			return fmt.Errorf("invalid brand id %d", r.BrandID)
		}
		if r.RespondedAt.IsZero() {
			return fmt.Errorf("missing responded_at timestamp")
		}
		return nil
	},
}

// citationBinding maps cited sources onto citations.
var citationBinding = binding[models.Citation]{
	table:     "citations",
	keyColumn: "external_id",
	columns: []string{
		"external_id", "response_external_id", "brand_id", "url", "domain",
		"title", `"position"`, "synced_at",
	},
	key:    func(c models.Citation) string { return strconv.FormatInt(c.ExternalID, 10) },
	keyArg: func(c models.Citation) any { return c.ExternalID },
	args: func(c models.Citation) []any {
		return []any{
			c.ExternalID, c.ResponseExternalID, c.BrandID, c.URL, c.Domain,
			c.Title, c.Position, c.SyncedAt,
		}
	},
	updateSet: []string{
		"response_external_id", "brand_id", "url", "domain", "title",
		`"position"`, "synced_at",
	},
	selectColumns: []string{
		"external_id", "response_external_id", "brand_id", "url", "domain",
		"title", `"position"`,
	},
	scan: func(r rowScanner) (string, models.Citation, error) {
		var c models.Citation
		err := r.Scan(&c.ExternalID, &c.ResponseExternalID, &c.BrandID,
			&c.URL, &c.Domain, &c.Title, &c.Position)
		return strconv.FormatInt(c.ExternalID, 10), c, err
	},
	equal: func(a, b models.Citation) bool {
		return a.ResponseExternalID == b.ResponseExternalID &&
			a.BrandID == b.BrandID &&
			a.URL == b.URL &&
			a.Domain == b.Domain &&
			a.Title == b.Title &&
			a.Position == b.Position
	},
	validate: func(c models.Citation) error {
		if c.ExternalID <= 0 {
			return fmt.Errorf("invalid external id %d", c.ExternalID)
		}
		if c.ResponseExternalID <= 0 {
			return fmt.Errorf("invalid response id %d", c.ResponseExternalID)
		}
		if c.BrandID <= 0 {
			return fmt.Errorf("invalid brand id %d", c.BrandID)
		}
		if c.URL == "" {
			return fmt.Errorf("empty citation url")
		}
		return nil
	},
}

// ReconcilePrompts upserts a fetched set of tracked prompts.
func (db *DB) ReconcilePrompts(ctx context.Context, records []models.Prompt, batchSize int, progress func(done, total int64)) (ReconcileStats, error) {
	return reconcile(ctx, db, &promptBinding, records, batchSize, progress)
}

// ReconcilePromptResponses upserts a fetched window of model responses.
func (db *DB) ReconcilePromptResponses(ctx context.Context, records []models.PromptResponse, batchSize int, progress func(done, total int64)) (ReconcileStats, error) {
	return reconcile(ctx, db, &responseBinding, records, batchSize, progress)
}

// ReconcileCitations upserts a fetched set of citations.
func (db *DB) ReconcileCitations(ctx context.Context, records []models.Citation, batchSize int, progress func(done, total int64)) (ReconcileStats, error) {
	return reconcile(ctx, db, &citationBinding, records, batchSize, progress)
}
