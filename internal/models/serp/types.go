// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Package serp contains wire types for the SEO keyword-ranking provider API.
//
// The provider paginates with page/page_size query parameters and reports
// total_pages in every page envelope. IDs and volumes are 64-bit.
package serp

// KeywordPage is one page of tracked keywords for a project.
type KeywordPage struct {
	Data       []Keyword `json:"data"`
	Page       int64     `json:"page"`
	PageSize   int64     `json:"page_size"`
	TotalPages int64     `json:"total_pages"`
	TotalItems int64     `json:"total_items"`
}

// Keyword is one tracked keyword.
type Keyword struct {
	ID           int64   `json:"id"`
	Phrase       string  `json:"phrase"`
	SearchVolume int64   `json:"search_volume"`
	Difficulty   float64 `json:"difficulty"`
	Tracked      bool    `json:"tracked"`
}

// RankingPage is one page of dated ranking observations.
type RankingPage struct {
	Data       []Ranking `json:"data"`
	Page       int64     `json:"page"`
	PageSize   int64     `json:"page_size"`
	TotalPages int64     `json:"total_pages"`
	TotalItems int64     `json:"total_items"`
}

// Ranking is one ranking observation for a keyword on a date.
type Ranking struct {
	ID               int64  `json:"id"`
	KeywordID        int64  `json:"keyword_id"`
	CheckedOn        string `json:"checked_on"` // YYYY-MM-DD
	Position         int64  `json:"position"`
	PreviousPosition int64  `json:"previous_position"`
	URL              string `json:"url"`
	SERPFeatures     string `json:"serp_features"`
}

// ErrorResponse is the provider's error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
