// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/middleware"
)

// rateLimit pairs a request budget with its window.
type rateLimit struct {
	requests int
	window   time.Duration
}

// Rate limit tiers. Login is strict to slow brute forcing; sync triggers
// are resource intensive; health stays permissive for monitoring probes.
var (
	rateLimitLogin  = rateLimit{requests: 5, window: 5 * time.Minute}
	rateLimitSync   = rateLimit{requests: 10, window: time.Minute}
	rateLimitHealth = rateLimit{requests: 1000, window: time.Minute}
)

// Router wires handlers, middleware, and rate limits into the HTTP surface.
type Router struct {
	handler *Handler
	authn   *middleware.Authenticator
	cfg     *config.Config
}

// NewRouter creates the API router.
func NewRouter(handler *Handler, authn *middleware.Authenticator, cfg *config.Config) *Router {
	return &Router{handler: handler, authn: authn, cfg: cfg}
}

// Setup builds the chi route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.Security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rateLimitHealth.requests, rateLimitHealth.window))
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rateLimitLogin.requests, rateLimitLogin.window))
		r.Use(middleware.SecurityHeaders)
		r.Post("/login", rt.handler.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.defaultRateLimit())
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.Prometheus)
		r.Use(rt.authn.Authenticate)

		r.Route("/brands", func(r chi.Router) {
			r.Get("/", rt.handler.ListBrands)
			r.Post("/", rt.handler.CreateBrand)

			r.Route("/{brandID}", func(r chi.Router) {
				r.Get("/", rt.handler.GetBrand)
				r.Put("/", rt.handler.UpdateBrand)
				r.Delete("/", rt.handler.DeleteBrand)

				r.Get("/kpis", rt.handler.GetKPIs)
				r.Route("/charts", func(r chi.Router) {
					r.Get("/traffic", rt.handler.GetTrafficChart)
					r.Get("/rankings", rt.handler.GetRankingsChart)
					r.Get("/ranking-movers", rt.handler.GetRankingMovers)
					r.Get("/visibility", rt.handler.GetVisibilityChart)
					r.Get("/cited-sources", rt.handler.GetCitedSources)
				})

				r.Get("/dashboard", rt.handler.GetDashboardConfig)
				r.Put("/dashboard", rt.handler.PutDashboardConfig)

				r.With(httprate.LimitByIP(rateLimitSync.requests, rateLimitSync.window)).
					Post("/sync/{source}", rt.handler.TriggerSync)
				r.Get("/jobs", rt.handler.ListSyncJobs)
			})
		})

		r.Get("/jobs/{jobID}", rt.handler.GetSyncJob)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// defaultRateLimit builds the standard API rate limiter from config.
func (rt *Router) defaultRateLimit() func(http.Handler) http.Handler {
	requests := rt.cfg.Security.RateLimitReqs
	window := rt.cfg.Security.RateLimitWindow
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(requests, window)
}
