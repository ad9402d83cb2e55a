// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brandlens/brandlens/internal/database"
	syncpkg "github.com/brandlens/brandlens/internal/sync"
)

// TriggerSync starts an on-demand sync of one source for a brand and
// returns the pending job with 202. The front-end polls the job endpoint
// for progress.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, err := brandIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	source := chi.URLParam(r, "source")

	job, err := h.sync.TriggerSync(r.Context(), brandID, source)
	switch {
	case err == nil:
		rw.Accepted(job)
	case errors.Is(err, syncpkg.ErrSyncInProgress):
		rw.Conflict(err.Error())
	case errors.Is(err, syncpkg.ErrSourceDisabled),
		errors.Is(err, syncpkg.ErrSourceNotConfigured):
		rw.BadRequest(err.Error())
	case errors.Is(err, database.ErrNotFound):
		rw.NotFound("brand not found")
	default:
		rw.DatabaseError(err)
	}
}

// ListSyncJobs returns a brand's recent sync jobs, optionally filtered by
// source.
func (h *Handler) ListSyncJobs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	brandID, ok := h.requireBrand(rw, r)
	if !ok {
		return
	}
	limit, err := limitParam(r, 50, 500)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	jobs, err := h.db.ListSyncJobs(r.Context(), brandID, r.URL.Query().Get("source"), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(jobs)
}

// GetSyncJob returns one sync job by ID, including progress and per-record
// errors. This is the endpoint the front-end polls during a run.
func (h *Handler) GetSyncJob(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		rw.BadRequest("invalid job id")
		return
	}

	job, err := h.db.GetSyncJob(r.Context(), jobID)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("sync job not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(job)
}
