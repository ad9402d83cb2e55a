// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/models/serp"
)

// SERPClient talks to the SEO keyword-ranking provider.
//
// The provider paginates with page/page_size and reports total_pages in
// every envelope. Keyword and ranking ids are 64-bit.
// Thread safety: safe for concurrent use.
type SERPClient struct {
	baseURL  string
	apiKey   string
	pageSize int64
	caller   apiCaller
}

// NewSERPClient creates a SERP provider client from configuration.
func NewSERPClient(cfg *config.SERPConfig) *SERPClient {
	pageSize := int64(cfg.PageSize)
	if pageSize <= 0 {
		pageSize = 500
	}
	return &SERPClient{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		caller:   newAPICaller("serp", cfg.Timeout, cfg.RequestsPerSec),
	}
}

// get executes one authenticated GET and decodes into result.
func (c *SERPClient) get(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	resp, err := c.caller.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("failed %s request: %w", path, err)
	}
	return decodeResponse(resp, "serp", result)
}

// ListKeywords fetches every tracked keyword of a project across all pages.
func (c *SERPClient) ListKeywords(ctx context.Context, projectID int64) ([]serp.Keyword, error) {
	var keywords []serp.Keyword
	for page := int64(1); ; page++ {
		params := url.Values{}
		params.Set("page", strconv.FormatInt(page, 10))
		params.Set("page_size", strconv.FormatInt(c.pageSize, 10))

		var result serp.KeywordPage
		path := fmt.Sprintf("/v1/projects/%d/keywords", projectID)
		if err := c.get(ctx, path, params, &result); err != nil {
			return nil, err
		}
		keywords = append(keywords, result.Data...)

		if len(result.Data) == 0 || page >= result.TotalPages {
			return keywords, nil
		}
	}
}

// ListRankings fetches every ranking observation of a project in
// [from, to] across all pages. Dates are sent as YYYY-MM-DD.
func (c *SERPClient) ListRankings(ctx context.Context, projectID int64, from, to time.Time) ([]serp.Ranking, error) {
	var rankings []serp.Ranking
	for page := int64(1); ; page++ {
		params := url.Values{}
		params.Set("from", from.Format("2006-01-02"))
		params.Set("to", to.Format("2006-01-02"))
		params.Set("page", strconv.FormatInt(page, 10))
		params.Set("page_size", strconv.FormatInt(c.pageSize, 10))

		var result serp.RankingPage
		path := fmt.Sprintf("/v1/projects/%d/rankings", projectID)
		if err := c.get(ctx, path, params, &result); err != nil {
			return nil, err
		}
		rankings = append(rankings, result.Data...)

		if len(result.Data) == 0 || page >= result.TotalPages {
			return rankings, nil
		}
	}
}

// Ping verifies the endpoint and credential with a minimal keyword page.
func (c *SERPClient) Ping(ctx context.Context, projectID int64) error {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("page_size", "1")

	var result serp.KeywordPage
	return c.get(ctx, fmt.Sprintf("/v1/projects/%d/keywords", projectID), params, &result)
}
