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
	"github.com/brandlens/brandlens/internal/models/aiv"
)

// AIVClient talks to the AI brand-visibility provider.
//
// The provider paginates with opaque cursors: each page carries next_cursor,
// empty once the collection is exhausted.
// Thread safety: safe for concurrent use.
type AIVClient struct {
	baseURL  string
	apiKey   string
	pageSize int64
	caller   apiCaller
}

// NewAIVClient creates an AIV provider client from configuration.
func NewAIVClient(cfg *config.AIVConfig) *AIVClient {
	pageSize := int64(cfg.PageSize)
	if pageSize <= 0 {
		pageSize = 500
	}
	return &AIVClient{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		caller:   newAPICaller("aiv", cfg.Timeout, cfg.RequestsPerSec),
	}
}

// get executes one authenticated GET and decodes into result.
func (c *AIVClient) get(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	resp, err := c.caller.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("failed %s request: %w", path, err)
	}
	return decodeResponse(resp, "aiv", result)
}

// collectCursorPages walks a cursor-paginated collection until next_cursor
// comes back empty. A cursor that repeats aborts the walk instead of
// looping forever on a misbehaving provider.
func collectCursorPages[T any](ctx context.Context, fetch func(cursor string) ([]T, string, error)) ([]T, error) {
	var (
		items  []T
		cursor string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, next, err := fetch(cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, data...)

		if next == "" {
			return items, nil
		}
		if next == cursor {
			return nil, fmt.Errorf("provider returned repeating cursor %q", cursor)
		}
		cursor = next
	}
}

// ListPrompts fetches every tracked prompt of a workspace.
func (c *AIVClient) ListPrompts(ctx context.Context, workspaceID string) ([]aiv.Prompt, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/prompts", url.PathEscape(workspaceID))
	return collectCursorPages(ctx, func(cursor string) ([]aiv.Prompt, string, error) {
		params := c.pageParams(cursor)
		var result aiv.PromptPage
		if err := c.get(ctx, path, params, &result); err != nil {
			return nil, "", err
		}
		return result.Data, result.NextCursor, nil
	})
}

// ListResponses fetches every model response of a workspace in [from, to].
func (c *AIVClient) ListResponses(ctx context.Context, workspaceID string, from, to time.Time) ([]aiv.Response, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/responses", url.PathEscape(workspaceID))
	return collectCursorPages(ctx, func(cursor string) ([]aiv.Response, string, error) {
		params := c.pageParams(cursor)
		params.Set("from", from.UTC().Format(time.RFC3339))
		params.Set("to", to.UTC().Format(time.RFC3339))
		var result aiv.ResponsePage
		if err := c.get(ctx, path, params, &result); err != nil {
			return nil, "", err
		}
		return result.Data, result.NextCursor, nil
	})
}

// ListCitations fetches every citation of a workspace in [from, to],
// windowed by the citing response's timestamp.
func (c *AIVClient) ListCitations(ctx context.Context, workspaceID string, from, to time.Time) ([]aiv.Citation, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/citations", url.PathEscape(workspaceID))
	return collectCursorPages(ctx, func(cursor string) ([]aiv.Citation, string, error) {
		params := c.pageParams(cursor)
		params.Set("from", from.UTC().Format(time.RFC3339))
		params.Set("to", to.UTC().Format(time.RFC3339))
		var result aiv.CitationPage
		if err := c.get(ctx, path, params, &result); err != nil {
			return nil, "", err
		}
		return result.Data, result.NextCursor, nil
	})
}

// Ping verifies the endpoint and credential with a minimal prompt page.
func (c *AIVClient) Ping(ctx context.Context, workspaceID string) error {
	params := url.Values{}
	params.Set("limit", "1")
	var result aiv.PromptPage
	return c.get(ctx, fmt.Sprintf("/v1/workspaces/%s/prompts", url.PathEscape(workspaceID)), params, &result)
}

func (c *AIVClient) pageParams(cursor string) url.Values {
	params := url.Values{}
	params.Set("limit", strconv.FormatInt(c.pageSize, 10))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}
