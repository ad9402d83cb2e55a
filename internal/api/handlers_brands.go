// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brandlens/brandlens/internal/database"
	"github.com/brandlens/brandlens/internal/logging"
	"github.com/brandlens/brandlens/internal/models"
	"github.com/brandlens/brandlens/internal/validation"
)

type brandRequest struct {
	Slug           string `json:"slug"            validate:"required,brand_slug"`
	Name           string `json:"name"            validate:"required,max=128"`
	GA4PropertyID  string `json:"ga4_property_id" validate:"omitempty,max=64"`
	SERPProjectID  int64  `json:"serp_project_id" validate:"omitempty,min=1"`
	AIVWorkspaceID string `json:"aiv_workspace_id" validate:"omitempty,max=64"`
}

// ListBrands returns all brands.
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brands, err := h.db.ListBrands(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(brands)
}

// GetBrand returns one brand by ID.
func (h *Handler) GetBrand(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, err := brandIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	brand, err := h.db.GetBrand(r.Context(), brandID)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("brand not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(brand)
}

// CreateBrand creates a new brand tenant.
func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req brandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if fields := validation.Struct(req); fields != nil {
		rw.ValidationError("invalid brand", fields)
		return
	}

	brand := &models.Brand{
		Slug:           req.Slug,
		Name:           req.Name,
		GA4PropertyID:  req.GA4PropertyID,
		SERPProjectID:  req.SERPProjectID,
		AIVWorkspaceID: req.AIVWorkspaceID,
	}
	if err := h.db.CreateBrand(r.Context(), brand); err != nil {
		if isUniqueViolation(err) {
			rw.Conflict("a brand with that slug already exists")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Info().Str("slug", brand.Slug).Int64("brand_id", brand.ID).Msg("Brand created")
	rw.Created(brand)
}

// UpdateBrand replaces a brand's name and provider bindings.
func (h *Handler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, err := brandIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	var req brandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if fields := validation.Struct(req); fields != nil {
		rw.ValidationError("invalid brand", fields)
		return
	}

	brand := &models.Brand{
		ID:             brandID,
		Slug:           req.Slug,
		Name:           req.Name,
		GA4PropertyID:  req.GA4PropertyID,
		SERPProjectID:  req.SERPProjectID,
		AIVWorkspaceID: req.AIVWorkspaceID,
	}
	err = h.db.UpdateBrand(r.Context(), brand)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("brand not found")
		return
	}
	if err != nil {
		if isUniqueViolation(err) {
			rw.Conflict("a brand with that slug already exists")
			return
		}
		rw.DatabaseError(err)
		return
	}
	rw.Success(brand)
}

// DeleteBrand removes a brand and all of its synced data.
func (h *Handler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, err := brandIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	err = h.db.DeleteBrand(r.Context(), brandID)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("brand not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Info().Int64("brand_id", brandID).Msg("Brand deleted")
	rw.NoContent()
}

// isUniqueViolation matches DuckDB's constraint violation message. The
// driver does not expose typed constraint errors.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}
