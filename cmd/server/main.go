// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Brandlens server: syncs marketing data from GA4, SERP, and AIV providers
// into DuckDB and serves the multi-tenant dashboard API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandlens/brandlens/internal/api"
	"github.com/brandlens/brandlens/internal/auth"
	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/database"
	"github.com/brandlens/brandlens/internal/logging"
	"github.com/brandlens/brandlens/internal/middleware"
	"github.com/brandlens/brandlens/internal/supervisor"
	"github.com/brandlens/brandlens/internal/supervisor/services"
	syncpkg "github.com/brandlens/brandlens/internal/sync"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Strs("sources", cfg.EnabledSources()).
		Msg("Brandlens starting")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	ga4c, serpc, aivc := buildClients(cfg)
	manager := syncpkg.NewManager(db, cfg, ga4c, serpc, aivc)

	jwtManager, creds, err := buildAuth(cfg)
	if err != nil {
		return err
	}

	handler := api.NewHandler(db, cfg, manager, jwtManager, creds)
	authn := middleware.NewAuthenticator(cfg.Security.AuthMode, jwtManager)
	router := api.NewRouter(handler, authn, cfg).Setup()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddSyncService(services.NewSyncService(manager))
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Listening")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree failed: %w", err)
	}

	logging.Info().Msg("Brandlens stopped")
	return nil
}

// buildClients constructs provider clients for the enabled sources, each
// behind its own circuit breaker. Disabled sources get nil clients; the
// sync manager refuses to trigger them.
func buildClients(cfg *config.Config) (syncpkg.GA4API, syncpkg.SERPAPI, syncpkg.AIVAPI) {
	var (
		ga4c  syncpkg.GA4API
		serpc syncpkg.SERPAPI
		aivc  syncpkg.AIVAPI
	)
	if cfg.GA4.Enabled {
		ga4c = syncpkg.NewGA4Breaker(syncpkg.NewGA4Client(&cfg.GA4))
	}
	if cfg.SERP.Enabled {
		serpc = syncpkg.NewSERPBreaker(syncpkg.NewSERPClient(&cfg.SERP))
	}
	if cfg.AIV.Enabled {
		aivc = syncpkg.NewAIVBreaker(syncpkg.NewAIVClient(&cfg.AIV))
	}
	return ga4c, serpc, aivc
}

// buildAuth constructs the JWT manager and admin credentials when auth is
// enabled. In "none" mode both are nil.
func buildAuth(cfg *config.Config) (*auth.JWTManager, *auth.Credentials, error) {
	if cfg.Security.AuthMode != "jwt" {
		logging.Warn().Msg("Authentication disabled, all API endpoints are open")
		return nil, nil, nil
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize JWT manager: %w", err)
	}
	creds, err := auth.NewCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize admin credentials: %w", err)
	}
	return jwtManager, creds, nil
}
