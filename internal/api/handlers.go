// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package api

import (
	"context"

	"github.com/brandlens/brandlens/internal/auth"
	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/database"
	"github.com/brandlens/brandlens/internal/models"
)

// SyncTrigger starts an on-demand sync run. Implemented by *sync.Manager.
type SyncTrigger interface {
	TriggerSync(ctx context.Context, brandID int64, source string) (*models.SyncJob, error)
}

// Handler implements the dashboard API endpoints.
type Handler struct {
	db    *database.DB
	cfg   *config.Config
	sync  SyncTrigger
	jwt   *auth.JWTManager
	creds *auth.Credentials
}

// NewHandler creates the API handler. jwt and creds may be nil when
// auth_mode is "none"; the login endpoint then reports auth as disabled.
func NewHandler(db *database.DB, cfg *config.Config, sync SyncTrigger, jwt *auth.JWTManager, creds *auth.Credentials) *Handler {
	return &Handler{db: db, cfg: cfg, sync: sync, jwt: jwt, creds: creds}
}
