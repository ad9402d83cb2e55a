// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Package ga4 contains wire types for the Google Analytics 4 Data API
// (analyticsdata.googleapis.com, v1beta runReport).
package ga4

// RunReportRequest is the request body for properties/{property}:runReport.
type RunReportRequest struct {
	DateRanges []DateRange `json:"dateRanges"`
	Dimensions []Dimension `json:"dimensions"`
	Metrics    []Metric    `json:"metrics"`
	Limit      int64       `json:"limit,omitempty"`
	Offset     int64       `json:"offset,omitempty"`
}

// DateRange bounds a report query (YYYY-MM-DD, inclusive).
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Dimension names a report dimension (e.g. "date").
type Dimension struct {
	Name string `json:"name"`
}

// Metric names a report metric (e.g. "sessions").
type Metric struct {
	Name string `json:"name"`
}

// RunReportResponse is the paginated report payload.
//
// RowCount is the total matching rows across all pages, not the page size;
// pagination continues while offset+len(rows) < rowCount.
type RunReportResponse struct {
	DimensionHeaders []DimensionHeader `json:"dimensionHeaders"`
	MetricHeaders    []MetricHeader    `json:"metricHeaders"`
	Rows             []Row             `json:"rows"`
	RowCount         int64             `json:"rowCount"`
}

// DimensionHeader describes one dimension column.
type DimensionHeader struct {
	Name string `json:"name"`
}

// MetricHeader describes one metric column.
type MetricHeader struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Row is one report row; values are positionally aligned with the headers.
type Row struct {
	DimensionValues []Value `json:"dimensionValues"`
	MetricValues    []Value `json:"metricValues"`
}

// Value is a single dimension or metric cell. GA4 returns all values as strings.
type Value struct {
	Value string `json:"value"`
}

// ErrorResponse is the GA4 error envelope.
type ErrorResponse struct {
	Error struct {
		Code    int64  `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
