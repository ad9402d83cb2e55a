// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/brandlens/brandlens/internal/auth"
	"github.com/brandlens/brandlens/internal/logging"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator gates API routes behind JWT session tokens. In "none" mode
// every request passes through, which is only meant for local development.
type Authenticator struct {
	mode string
	jwt  *auth.JWTManager
}

// NewAuthenticator creates the auth middleware for the configured mode.
// The JWT manager may be nil in "none" mode.
func NewAuthenticator(mode string, jwt *auth.JWTManager) *Authenticator {
	return &Authenticator{mode: mode, jwt: jwt}
}

// Authenticate verifies the bearer token on each request and stores the
// authenticated username in the context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.mode == "none" {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeUnauthorized(w, r, "missing bearer token")
			return
		}

		claims, err := a.jwt.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected invalid token")
			writeUnauthorized(w, r, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated username, or "" when the request
// was not authenticated (auth_mode "none").
func UserFromContext(ctx context.Context) string {
	if user, ok := ctx.Value(userKey).(string); ok {
		return user
	}
	return ""
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeUnauthorized writes a 401 in the API's standard error envelope. The
// envelope is built inline because the api package depends on this one.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)

	body := map[string]any{
		"success": false,
		"error": map[string]any{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": logging.RequestIDFromContext(r.Context()),
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode auth error response")
	}
}
