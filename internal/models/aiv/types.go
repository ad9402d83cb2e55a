// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Package aiv contains wire types for the AI brand-visibility provider API.
//
// The provider paginates with opaque cursors: each page carries next_cursor,
// empty when the collection is exhausted.
package aiv

// PromptPage is one cursor page of tracked prompts.
type PromptPage struct {
	Data       []Prompt `json:"data"`
	NextCursor string   `json:"next_cursor"`
}

// Prompt is one tracked prompt.
type Prompt struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Topic  string `json:"topic"`
	Active bool   `json:"active"`
}

// ResponsePage is one cursor page of model responses.
type ResponsePage struct {
	Data       []Response `json:"data"`
	NextCursor string     `json:"next_cursor"`
}

// Response is one model run of a prompt with visibility scoring.
type Response struct {
	ID              int64   `json:"id"`
	PromptID        int64   `json:"prompt_id"`
	Model           string  `json:"model"`
	RespondedAt     string  `json:"responded_at"` // RFC 3339
	BrandMentioned  bool    `json:"brand_mentioned"`
	MentionPosition int64   `json:"mention_position"`
	SentimentScore  float64 `json:"sentiment_score"`
	ShareOfVoice    float64 `json:"share_of_voice"`
}

// CitationPage is one cursor page of citations.
type CitationPage struct {
	Data       []Citation `json:"data"`
	NextCursor string     `json:"next_cursor"`
}

// Citation is one source cited inside a response.
type Citation struct {
	ID         int64  `json:"id"`
	ResponseID int64  `json:"response_id"`
	URL        string `json:"url"`
	Domain     string `json:"domain"`
	Title      string `json:"title"`
	Position   int64  `json:"position"`
}

// ErrorResponse is the provider's error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
