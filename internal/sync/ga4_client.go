// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package sync

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/models/ga4"
)

// ga4Metrics are the report metrics requested for the daily traffic table,
// positionally aligned with the row mapping in ga4_sync.go.
var ga4Metrics = []ga4.Metric{
	{Name: "sessions"},
	{Name: "totalUsers"},
	{Name: "newUsers"},
	{Name: "screenPageViews"},
	{Name: "conversions"},
	{Name: "engagementRate"},
	{Name: "averageSessionDuration"},
}

// GA4Client talks to the Google Analytics 4 Data API (v1beta runReport).
//
// runReport paginates with offset/limit; rowCount in the response is the
// total across all pages, so fetching continues while offset+rows < rowCount.
// Thread safety: safe for concurrent use.
type GA4Client struct {
	baseURL     string
	accessToken string
	pageSize    int64
	caller      apiCaller
}

// NewGA4Client creates a GA4 Data API client from configuration.
func NewGA4Client(cfg *config.GA4Config) *GA4Client {
	pageSize := int64(cfg.PageSize)
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &GA4Client{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		pageSize:    pageSize,
		caller:      newAPICaller("ga4", cfg.Timeout, cfg.RequestsPerSec),
	}
}

// RunReport executes one runReport call against a property.
func (c *GA4Client) RunReport(ctx context.Context, property string, report *ga4.RunReportRequest) (*ga4.RunReportResponse, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal runReport request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1beta/properties/%s:runReport", c.baseURL, property)
	resp, err := c.caller.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run GA4 report for property %s: %w", property, err)
	}

	var result ga4.RunReportResponse
	if err := decodeResponse(resp, "ga4", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchDailyRows fetches every row of the daily traffic report for
// [start, end], following offset pagination to the reported rowCount.
func (c *GA4Client) FetchDailyRows(ctx context.Context, property string, start, end time.Time) ([]ga4.Row, error) {
	report := &ga4.RunReportRequest{
		DateRanges: []ga4.DateRange{{
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.Format("2006-01-02"),
		}},
		Dimensions: []ga4.Dimension{{Name: "date"}},
		Metrics:    ga4Metrics,
		Limit:      c.pageSize,
	}

	var rows []ga4.Row
	for offset := int64(0); ; {
		report.Offset = offset
		page, err := c.RunReport(ctx, property, report)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page.Rows...)

		offset += int64(len(page.Rows))
		if len(page.Rows) == 0 || offset >= page.RowCount {
			return rows, nil
		}
	}
}

// Ping verifies the endpoint and credential with a single-row report.
func (c *GA4Client) Ping(ctx context.Context, property string) error {
	_, err := c.RunReport(ctx, property, &ga4.RunReportRequest{
		DateRanges: []ga4.DateRange{{StartDate: "yesterday", EndDate: "yesterday"}},
		Dimensions: []ga4.Dimension{{Name: "date"}},
		Metrics:    []ga4.Metric{{Name: "sessions"}},
		Limit:      1,
	})
	return err
}
