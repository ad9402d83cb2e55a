// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Package middleware provides HTTP middleware shared across the API:
// request IDs, Prometheus instrumentation, security headers, and JWT
// authentication.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/brandlens/brandlens/internal/logging"
)

// RequestID assigns every request a unique ID, echoing one supplied by an
// upstream proxy when present. The ID lands in the X-Request-ID response
// header and the request context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
