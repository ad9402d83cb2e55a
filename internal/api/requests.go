// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// defaultWindowDays is the analytics window used when the request carries no
// start/end parameters.
const defaultWindowDays = 30

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20 // 1 MB

// brandIDParam parses the {brandID} route parameter.
func brandIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "brandID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid brand id %q", raw)
	}
	return id, nil
}

// timeWindow parses optional start/end query parameters (YYYY-MM-DD). The
// end date is inclusive: it extends to the end of that day. Defaults to the
// last 30 days.
func timeWindow(r *http.Request) (start, end time.Time, err error) {
	now := time.Now().UTC()
	start = now.AddDate(0, 0, -defaultWindowDays)
	end = now

	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err = time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return start, end, fmt.Errorf("invalid start date %q, want YYYY-MM-DD", raw)
		}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err = time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return start, end, fmt.Errorf("invalid end date %q, want YYYY-MM-DD", raw)
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	if end.Before(start) {
		return start, end, fmt.Errorf("end date is before start date")
	}
	return start, end, nil
}

// limitParam parses an optional limit query parameter, clamped to max.
func limitParam(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}

// decodeJSON decodes a bounded JSON request body into dst, rejecting
// unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
