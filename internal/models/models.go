// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Package models defines the persisted domain types shared across Brandlens.
//
// All external identifiers and provider-supplied count fields are int64:
// upstream IDs and volumes routinely exceed 32-bit range, and silently
// truncating them corrupts the upsert key space.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a tenant: one tracked brand with its provider bindings.
type Brand struct {
	ID             int64     `json:"id"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	GA4PropertyID  string    `json:"ga4_property_id,omitempty"`
	SERPProjectID  int64     `json:"serp_project_id,omitempty"`
	AIVWorkspaceID string    `json:"aiv_workspace_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GA4DailyMetric is one day of GA4 traffic metrics for a brand property.
// The external key is "<property>:<date>"; GA4 has no row-level IDs.
type GA4DailyMetric struct {
	BrandID            int64     `json:"brand_id"`
	ExternalKey        string    `json:"external_key"`
	MetricDate         time.Time `json:"metric_date"`
	Sessions           int64     `json:"sessions"`
	TotalUsers         int64     `json:"total_users"`
	NewUsers           int64     `json:"new_users"`
	PageViews          int64     `json:"page_views"`
	Conversions        int64     `json:"conversions"`
	EngagementRate     float64   `json:"engagement_rate"`
	AvgSessionDuration float64   `json:"avg_session_duration"`
	SyncedAt           time.Time `json:"synced_at"`
}

// Keyword is a tracked search keyword from the SERP provider.
type Keyword struct {
	ExternalID   int64     `json:"external_id"`
	BrandID      int64     `json:"brand_id"`
	Phrase       string    `json:"phrase"`
	SearchVolume int64     `json:"search_volume"`
	Difficulty   float64   `json:"difficulty"`
	Tracked      bool      `json:"tracked"`
	SyncedAt     time.Time `json:"synced_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// KeywordRanking is one dated ranking observation for a keyword.
type KeywordRanking struct {
	ExternalID       int64     `json:"external_id"`
	KeywordExternalID int64    `json:"keyword_external_id"`
	BrandID          int64     `json:"brand_id"`
	CheckedOn        time.Time `json:"checked_on"`
	Position         int64     `json:"position"`
	PreviousPosition int64     `json:"previous_position"`
	RankingURL       string    `json:"ranking_url"`
	SERPFeatures     string    `json:"serp_features"`
	SyncedAt         time.Time `json:"synced_at"`
}

// Prompt is a tracked AI-visibility prompt from the AIV provider.
type Prompt struct {
	ExternalID int64     `json:"external_id"`
	BrandID    int64     `json:"brand_id"`
	Text       string    `json:"text"`
	Topic      string    `json:"topic"`
	Active     bool      `json:"active"`
	SyncedAt   time.Time `json:"synced_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PromptResponse is one model run of a prompt with brand-visibility scoring.
type PromptResponse struct {
	ExternalID       int64     `json:"external_id"`
	PromptExternalID int64     `json:"prompt_external_id"`
	BrandID          int64     `json:"brand_id"`
	Model            string    `json:"model"`
	RespondedAt      time.Time `json:"responded_at"`
	BrandMentioned   bool      `json:"brand_mentioned"`
	MentionPosition  int64     `json:"mention_position"`
	SentimentScore   float64   `json:"sentiment_score"`
	ShareOfVoice     float64   `json:"share_of_voice"`
	SyncedAt         time.Time `json:"synced_at"`
}

// Citation is a source URL cited inside a prompt response.
type Citation struct {
	ExternalID         int64     `json:"external_id"`
	ResponseExternalID int64     `json:"response_external_id"`
	BrandID            int64     `json:"brand_id"`
	URL                string    `json:"url"`
	Domain             string    `json:"domain"`
	Title              string    `json:"title"`
	Position           int64     `json:"position"`
	SyncedAt           time.Time `json:"synced_at"`
}

// Sync job status values.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// SyncJobError records one record-level failure inside a sync run.
type SyncJobError struct {
	ExternalID string `json:"external_id"`
	Error      string `json:"error"`
}

// SyncJob is one sync run of a provider source for a brand, polled by the
// front-end while running.
type SyncJob struct {
	ID             uuid.UUID      `json:"id"`
	BrandID        int64          `json:"brand_id"`
	Source         string         `json:"source"` // ga4 | serp | aiv
	Status         string         `json:"status"`
	Progress       int64          `json:"progress"` // 0..100
	TotalFetched   int64          `json:"total_fetched"`
	TotalInserted  int64          `json:"total_inserted"`
	TotalUpdated   int64          `json:"total_updated"`
	TotalUnchanged int64          `json:"total_unchanged"`
	TotalFailed    int64          `json:"total_failed"`
	Errors         []SyncJobError `json:"errors,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
}

// DashboardConfig selects which KPI cards and charts a brand's dashboard shows.
type DashboardConfig struct {
	BrandID   int64     `json:"brand_id"`
	KPIs      []string  `json:"kpis"`
	Charts    []string  `json:"charts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KnownKPIs are the KPI card identifiers the dashboard can render.
var KnownKPIs = []string{
	"sessions", "total_users", "conversions", "engagement_rate",
	"avg_position", "top10_keywords", "mention_rate", "sentiment", "citations",
}

// KnownCharts are the chart identifiers the dashboard can render.
var KnownCharts = []string{
	"traffic", "rankings", "ranking_movers", "visibility", "cited_sources",
}
