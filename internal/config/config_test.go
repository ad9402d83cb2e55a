// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// setupTestEnv sets up test environment variables and returns a cleanup function.
func setupTestEnv(t *testing.T, envVars map[string]string) func() {
	t.Helper()
	os.Clearenv()
	for k, v := range envVars {
		if err := os.Setenv(k, v); err != nil {
			t.Fatalf("failed to set env var %s: %v", k, err)
		}
	}
	return func() { os.Clearenv() }
}

// validTestEnv returns the minimum env vars for a valid jwt-mode config.
func validTestEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET":     strings.Repeat("s", 32),
		"ADMIN_USERNAME": "admin",
		"ADMIN_PASSWORD": "hunter2hunter2",
	}
}

func TestLoadWithKoanfDefaults(t *testing.T) {
	cleanup := setupTestEnv(t, validTestEnv())
	defer cleanup()

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8480 {
		t.Errorf("server.port = %d, want 8480", cfg.Server.Port)
	}
	if cfg.Sync.BatchSize != 500 {
		t.Errorf("sync.batch_size = %d, want 500", cfg.Sync.BatchSize)
	}
	if cfg.Sync.Interval != 6*time.Hour {
		t.Errorf("sync.interval = %s, want 6h", cfg.Sync.Interval)
	}
	if cfg.GA4.BaseURL != "https://analyticsdata.googleapis.com" {
		t.Errorf("ga4.base_url = %q, want GA4 default", cfg.GA4.BaseURL)
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	envVars := validTestEnv()
	envVars["HTTP_PORT"] = "9000"
	envVars["SYNC_BATCH_SIZE"] = "1000"
	envVars["DUCKDB_PATH"] = "/tmp/test.duckdb"
	envVars["LOG_LEVEL"] = "debug"
	cleanup := setupTestEnv(t, envVars)
	defer cleanup()

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Sync.BatchSize != 1000 {
		t.Errorf("sync.batch_size = %d, want 1000", cfg.Sync.BatchSize)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("database.path = %q, want /tmp/test.duckdb", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfCORSOriginsFromEnv(t *testing.T) {
	envVars := validTestEnv()
	envVars["CORS_ORIGINS"] = "https://app.example.com, https://staging.example.com"
	cleanup := setupTestEnv(t, envVars)
	defer cleanup()

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Security.CORSOrigins) != 2 {
		t.Fatalf("cors_origins = %v, want 2 entries", cfg.Security.CORSOrigins)
	}
	if cfg.Security.CORSOrigins[1] != "https://staging.example.com" {
		t.Errorf("cors_origins[1] = %q, want trimmed origin", cfg.Security.CORSOrigins[1])
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"batch size too small", func(c *Config) { c.Sync.BatchSize = 0 }, "sync.batch_size"},
		{"batch size too large", func(c *Config) { c.Sync.BatchSize = 20000 }, "sync.batch_size"},
		{"interval too short", func(c *Config) { c.Sync.Interval = time.Second }, "sync.interval"},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "jwt_secret"},
		{"bad auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "auth_mode"},
		{"page size inversion", func(c *Config) { c.API.MaxPageSize = 5 }, "max_page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWTSecret = strings.Repeat("s", 32)
			cfg.Security.AdminUsername = "admin"
			cfg.Security.AdminPassword = "hunter2hunter2"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidateEnabledProviderNeedsCredentials(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.SERP.Enabled = true
	cfg.SERP.BaseURL = "https://api.rankprovider.example"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "serp credential") {
		t.Errorf("expected serp credential error, got %v", err)
	}

	cfg.SERP.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error after setting credential: %v", err)
	}
}

func TestValidateRejectsNonHTTPBaseURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.AIV.Enabled = true
	cfg.AIV.BaseURL = "ftp://bad.example"
	cfg.AIV.APIKey = "key"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "aiv.base_url") {
		t.Errorf("expected aiv.base_url error, got %v", err)
	}
}

func TestEnabledSources(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.EnabledSources(); len(got) != 0 {
		t.Errorf("EnabledSources() = %v, want empty", got)
	}

	cfg.GA4.Enabled = true
	cfg.AIV.Enabled = true
	got := cfg.EnabledSources()
	if len(got) != 2 || got[0] != "ga4" || got[1] != "aiv" {
		t.Errorf("EnabledSources() = %v, want [ga4 aiv]", got)
	}
}

func TestEnvTransformSkipsUnknownKeys(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("envTransformFunc(PATH) = %q, want empty", got)
	}
	if got := envTransformFunc("GA4_ACCESS_TOKEN"); got != "ga4.access_token" {
		t.Errorf("envTransformFunc(GA4_ACCESS_TOKEN) = %q, want ga4.access_token", got)
	}
}
