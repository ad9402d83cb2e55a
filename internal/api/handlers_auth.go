// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package api

import (
	"net/http"
	"time"

	"github.com/brandlens/brandlens/internal/logging"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login exchanges admin credentials for a session token. Failures return
// the same message regardless of which part was wrong.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.jwt == nil || h.creds == nil {
		rw.BadRequest("authentication is disabled")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if !h.creds.Verify(req.Username, req.Password) {
		logging.Warn().Str("username", req.Username).Msg("Failed login attempt")
		rw.Unauthorized("invalid username or password")
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(req.Username)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to generate session token")
		rw.InternalError("failed to create session")
		return
	}

	logging.Info().Str("username", req.Username).Msg("Login succeeded")
	rw.Success(loginResponse{Token: token, ExpiresAt: expiresAt})
}
