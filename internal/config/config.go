// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Package config defines the Brandlens configuration model and its loader.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//  1. Environment variables
//  2. Optional YAML config file
//  3. Built-in defaults
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the Brandlens server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	GA4      GA4Config      `koanf:"ga4"`
	SERP     SERPConfig     `koanf:"serp"`
	AIV      AIVConfig      `koanf:"aiv"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SyncConfig holds settings shared by all provider syncs.
type SyncConfig struct {
	Interval      time.Duration `koanf:"interval"`
	Lookback      time.Duration `koanf:"lookback"`
	SyncAll       bool          `koanf:"sync_all"`
	InitialSync   bool          `koanf:"initial_sync"`
	BatchSize     int           `koanf:"batch_size"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

// APIConfig holds REST API pagination defaults.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	AuthMode        string        `koanf:"auth_mode"` // "jwt" or "none"
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	AdminUsername   string        `koanf:"admin_username"`
	AdminPassword   string        `koanf:"admin_password"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// GA4Config holds Google Analytics 4 Data API settings.
//
// Property IDs are configured per brand; this section carries the shared
// endpoint, credentials, and client tuning.
type GA4Config struct {
	Enabled        bool          `koanf:"enabled"`
	BaseURL        string        `koanf:"base_url"`
	AccessToken    string        `koanf:"access_token"`
	Timeout        time.Duration `koanf:"timeout"`
	PageSize       int           `koanf:"page_size"`
	RequestsPerSec float64       `koanf:"requests_per_sec"`
}

// SERPConfig holds the SEO keyword-ranking provider settings.
type SERPConfig struct {
	Enabled        bool          `koanf:"enabled"`
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`
	PageSize       int           `koanf:"page_size"`
	RequestsPerSec float64       `koanf:"requests_per_sec"`
}

// AIVConfig holds the AI brand-visibility provider settings.
type AIVConfig struct {
	Enabled        bool          `koanf:"enabled"`
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`
	PageSize       int           `koanf:"page_size"`
	RequestsPerSec float64       `koanf:"requests_per_sec"`
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Sync.BatchSize < 1 || c.Sync.BatchSize > 10000 {
		return fmt.Errorf("sync.batch_size must be between 1 and 10000, got %d", c.Sync.BatchSize)
	}
	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("sync.interval must be at least 1m, got %s", c.Sync.Interval)
	}
	if c.Sync.RetryAttempts < 0 {
		return fmt.Errorf("sync.retry_attempts must not be negative, got %d", c.Sync.RetryAttempts)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be >= api.default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters in jwt mode")
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("security.admin_username and security.admin_password are required in jwt mode")
		}
	case "none":
		// Development mode, no checks.
	default:
		return fmt.Errorf("security.auth_mode must be \"jwt\" or \"none\", got %q", c.Security.AuthMode)
	}

	if err := validateProvider("ga4", c.GA4.Enabled, c.GA4.BaseURL, c.GA4.AccessToken); err != nil {
		return err
	}
	if err := validateProvider("serp", c.SERP.Enabled, c.SERP.BaseURL, c.SERP.APIKey); err != nil {
		return err
	}
	if err := validateProvider("aiv", c.AIV.Enabled, c.AIV.BaseURL, c.AIV.APIKey); err != nil {
		return err
	}

	return nil
}

// validateProvider checks that an enabled provider has an endpoint and credential.
func validateProvider(name string, enabled bool, baseURL, credential string) error {
	if !enabled {
		return nil
	}
	if baseURL == "" {
		return fmt.Errorf("%s.base_url is required when %s.enabled is true", name, name)
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return fmt.Errorf("%s.base_url must start with http:// or https://, got %q", name, baseURL)
	}
	if credential == "" {
		return fmt.Errorf("%s credential is required when %s.enabled is true", name, name)
	}
	return nil
}

// EnabledSources returns the names of all enabled provider sources.
func (c *Config) EnabledSources() []string {
	var sources []string
	if c.GA4.Enabled {
		sources = append(sources, "ga4")
	}
	if c.SERP.Enabled {
		sources = append(sources, "serp")
	}
	if c.AIV.Enabled {
		sources = append(sources, "aiv")
	}
	return sources
}
