// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/brandlens/brandlens/internal/auth"
	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/database"
	"github.com/brandlens/brandlens/internal/middleware"
	"github.com/brandlens/brandlens/internal/models"
	syncpkg "github.com/brandlens/brandlens/internal/sync"
)

// fakeSync satisfies SyncTrigger without running a provider sync.
type fakeSync struct {
	db  *database.DB
	err error
}

func (f *fakeSync) TriggerSync(ctx context.Context, brandID int64, source string) (*models.SyncJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.db.CreateSyncJob(ctx, brandID, source)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func testAPIConfig(authMode string) *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			AuthMode:        authMode,
			JWTSecret:       "0123456789abcdef0123456789abcdef",
			SessionTimeout:  time.Hour,
			RateLimitReqs:   10000,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
	}
}

func newTestServer(t *testing.T, fake *fakeSync) (http.Handler, *database.DB) {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if fake == nil {
		fake = &fakeSync{}
	}
	fake.db = db

	cfg := testAPIConfig("none")
	handler := NewHandler(db, cfg, fake, nil, nil)
	authn := middleware.NewAuthenticator("none", nil)
	return NewRouter(handler, authn, cfg).Setup(), db
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to decode envelope from %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func createTestBrand(t *testing.T, db *database.DB) *models.Brand {
	t.Helper()
	brand := &models.Brand{
		Slug:           "acme",
		Name:           "Acme",
		GA4PropertyID:  "123456789",
		SERPProjectID:  42,
		AIVWorkspaceID: "ws_abc",
	}
	if err := db.CreateBrand(context.Background(), brand); err != nil {
		t.Fatalf("failed to create brand: %v", err)
	}
	return brand
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/health/live", nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Errorf("expected live 200 success, got %d %+v", rec.Code, env)
	}

	rec, env = doJSON(t, router, http.MethodGet, "/api/v1/health/ready", nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Errorf("expected ready 200 success, got %d %+v", rec.Code, env)
	}
}

func TestBrandCRUDOverHTTP(t *testing.T) {
	router, _ := newTestServer(t, nil)

	body := map[string]any{
		"slug":            "acme",
		"name":            "Acme",
		"serp_project_id": int64(9_000_000_000),
	}
	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/brands", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Brand
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("failed to decode brand: %v", err)
	}
	if created.ID == 0 || created.SERPProjectID != 9_000_000_000 {
		t.Errorf("unexpected created brand: %+v", created)
	}

	// Duplicate slug conflicts.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/brands", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate slug, got %d", rec.Code)
	}

	rec, env = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/brands/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body["name"] = "Acme Corp"
	rec, _ = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/brands/%d", created.ID), body)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/brands/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 on delete, got %d", rec.Code)
	}

	rec, env = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/brands/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("expected 404 NOT_FOUND after delete, got %d %+v", rec.Code, env.Error)
	}
}

func TestCreateBrandValidation(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/brands",
		map[string]any{"slug": "Not A Slug", "name": "Acme"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED, got %+v", env.Error)
	}
}

func TestKPIsEndpoint(t *testing.T) {
	router, db := newTestServer(t, nil)
	brand := createTestBrand(t, db)

	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := db.ReconcileGA4DailyMetrics(context.Background(), []models.GA4DailyMetric{{
		BrandID:     brand.ID,
		ExternalKey: "123456789:20260110",
		MetricDate:  day,
		Sessions:    500,
		TotalUsers:  300,
		SyncedAt:    time.Now().UTC(),
	}}, 500, nil)
	if err != nil {
		t.Fatalf("failed to seed metrics: %v", err)
	}

	path := fmt.Sprintf("/api/v1/brands/%d/kpis?start=2026-01-01&end=2026-01-31", brand.ID)
	rec, env := doJSON(t, router, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var kpis map[string]database.KPI
	if err := json.Unmarshal(env.Data, &kpis); err != nil {
		t.Fatalf("failed to decode KPIs: %v", err)
	}
	if kpis["sessions"].Value != 500 {
		t.Errorf("expected 500 sessions, got %+v", kpis["sessions"])
	}
}

func TestChartEndpointsRejectBadWindow(t *testing.T) {
	router, db := newTestServer(t, nil)
	brand := createTestBrand(t, db)

	path := fmt.Sprintf("/api/v1/brands/%d/charts/traffic?start=busted", brand.ID)
	rec, _ := doJSON(t, router, http.MethodGet, path, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad start date, got %d", rec.Code)
	}

	path = fmt.Sprintf("/api/v1/brands/%d/charts/traffic?start=2026-02-01&end=2026-01-01", brand.ID)
	rec, _ = doJSON(t, router, http.MethodGet, path, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted window, got %d", rec.Code)
	}
}

func TestChartEndpointsUnknownBrand(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/brands/999/charts/visibility", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown brand, got %d", rec.Code)
	}
}

func TestDashboardConfigEndpoint(t *testing.T) {
	router, db := newTestServer(t, nil)
	brand := createTestBrand(t, db)
	path := fmt.Sprintf("/api/v1/brands/%d/dashboard", brand.ID)

	// Default config before any save.
	rec, env := doJSON(t, router, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cfg models.DashboardConfig
	if err := json.Unmarshal(env.Data, &cfg); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if len(cfg.KPIs) != len(models.KnownKPIs) {
		t.Errorf("expected full default KPI set, got %v", cfg.KPIs)
	}

	rec, _ = doJSON(t, router, http.MethodPut, path, map[string]any{
		"kpis":   []string{"sessions", "mention_rate"},
		"charts": []string{"traffic"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on save, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, env = doJSON(t, router, http.MethodGet, path, nil)
	if err := json.Unmarshal(env.Data, &cfg); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if len(cfg.KPIs) != 2 || cfg.KPIs[0] != "sessions" {
		t.Errorf("unexpected saved KPIs: %v", cfg.KPIs)
	}

	// Unknown chart identifier is rejected.
	rec, env = doJSON(t, router, http.MethodPut, path, map[string]any{
		"kpis":   []string{"sessions"},
		"charts": []string{"pie-of-doom"},
	})
	if rec.Code != http.StatusBadRequest || env.Error.Code != ErrCodeValidationFailed {
		t.Errorf("expected validation failure, got %d %+v", rec.Code, env.Error)
	}
}

func TestTriggerSyncEndpoint(t *testing.T) {
	router, db := newTestServer(t, nil)
	brand := createTestBrand(t, db)

	path := fmt.Sprintf("/api/v1/brands/%d/sync/serp", brand.ID)
	rec, env := doJSON(t, router, http.MethodPost, path, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var job models.SyncJob
	if err := json.Unmarshal(env.Data, &job); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	if job.Status != models.JobStatusPending || job.Source != "serp" {
		t.Errorf("unexpected job: %+v", job)
	}

	// Poll the job endpoint the way the front-end does.
	rec, env = doJSON(t, router, http.MethodGet, "/api/v1/jobs/"+job.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 polling job, got %d", rec.Code)
	}
}

func TestTriggerSyncErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{syncpkg.ErrSyncInProgress, http.StatusConflict},
		{syncpkg.ErrSourceDisabled, http.StatusBadRequest},
		{syncpkg.ErrSourceNotConfigured, http.StatusBadRequest},
		{database.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		router, _ := newTestServer(t, &fakeSync{err: tc.err})
		rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/brands/1/sync/serp", nil)
		if rec.Code != tc.want {
			t.Errorf("error %v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestGetSyncJobNotFoundAndBadID(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad uuid, got %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rec.Code)
	}
}

func TestJWTModeProtectsDataEndpoints(t *testing.T) {
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := testAPIConfig("jwt")
	cfg.Security.AdminUsername = "admin"
	cfg.Security.AdminPassword = "correct-horse"

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("failed to create jwt manager: %v", err)
	}
	creds, err := auth.NewCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
	if err != nil {
		t.Fatalf("failed to create credentials: %v", err)
	}

	handler := NewHandler(db, cfg, &fakeSync{db: db}, jwtManager, creds)
	router := NewRouter(handler, middleware.NewAuthenticator("jwt", jwtManager), cfg).Setup()

	// No token: rejected.
	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/brands", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Wrong password: rejected.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "admin", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad login, got %d", rec.Code)
	}

	// Login and use the token.
	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "admin", "password": "correct-horse"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 login, got %d: %s", rec.Code, rec.Body.String())
	}
	var login loginResponse
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/brands", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d: %s", recorder.Code, recorder.Body.String())
	}
}
