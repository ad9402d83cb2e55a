// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/brandlens/brandlens/internal/database"
	"github.com/brandlens/brandlens/internal/models"
	"github.com/brandlens/brandlens/internal/validation"
)

// requireBrand resolves the {brandID} parameter to an existing brand,
// writing the error response itself when resolution fails.
func (h *Handler) requireBrand(rw *ResponseWriter, r *http.Request) (int64, bool) {
	brandID, err := brandIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return 0, false
	}
	if _, err := h.db.GetBrand(r.Context(), brandID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("brand not found")
		} else {
			rw.DatabaseError(err)
		}
		return 0, false
	}
	return brandID, true
}

// requireWindow parses the start/end query window, writing the error
// response on failure.
func requireWindow(rw *ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	start, end, err := timeWindow(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return start, end, false
	}
	return start, end, true
}

// GetKPIs returns all KPI cards for a brand over the requested window, each
// with the prior-window comparison baked in.
func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}
	start, end, ok := requireWindow(rw, r)
	if !ok {
		return
	}

	kpis, err := h.db.GetKPIs(r.Context(), brandID, start, end)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(kpis)
}

// GetTrafficChart returns the daily GA4 traffic series.
func (h *Handler) GetTrafficChart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}
	start, end, ok := requireWindow(rw, r)
	if !ok {
		return
	}

	series, err := h.db.GetTrafficSeries(r.Context(), brandID, start, end)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(series)
}

// GetRankingsChart returns the daily average keyword position series.
func (h *Handler) GetRankingsChart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}
	start, end, ok := requireWindow(rw, r)
	if !ok {
		return
	}

	series, err := h.db.GetRankingSeries(r.Context(), brandID, start, end)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(series)
}

// GetRankingMovers returns the keywords with the largest position changes.
func (h *Handler) GetRankingMovers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}
	limit, err := limitParam(r, 10, 100)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	movers, err := h.db.GetRankingMovers(r.Context(), brandID, limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(movers)
}

// GetVisibilityChart returns the daily AI-visibility series.
func (h *Handler) GetVisibilityChart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}
	start, end, ok := requireWindow(rw, r)
	if !ok {
		return
	}

	series, err := h.db.GetVisibilitySeries(r.Context(), brandID, start, end)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(series)
}

// GetCitedSources returns the most-cited domains in AI responses.
func (h *Handler) GetCitedSources(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}
	start, end, ok := requireWindow(rw, r)
	if !ok {
		return
	}
	limit, err := limitParam(r, 10, 100)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	sources, err := h.db.GetCitedSources(r.Context(), brandID, start, end, limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(sources)
}

type dashboardConfigRequest struct {
	KPIs   []string `json:"kpis"   validate:"required,min=1,dive,known_kpi"`
	Charts []string `json:"charts" validate:"required,min=1,dive,known_chart"`
}

// GetDashboardConfig returns the brand's card/chart selection, falling back
// to the full default set when none was saved.
func (h *Handler) GetDashboardConfig(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}

	cfg, err := h.db.GetDashboardConfig(r.Context(), brandID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(cfg)
}

// PutDashboardConfig replaces the brand's card/chart selection.
func (h *Handler) PutDashboardConfig(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}

	var req dashboardConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if fields := validation.Struct(req); fields != nil {
		rw.ValidationError("invalid dashboard configuration", fields)
		return
	}

	cfg := &models.DashboardConfig{BrandID: brandID, KPIs: req.KPIs, Charts: req.Charts}
	if err := h.db.PutDashboardConfig(r.Context(), cfg); err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(cfg)
}
