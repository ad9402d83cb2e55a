// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/models/aiv"
	"github.com/brandlens/brandlens/internal/models/ga4"
	"github.com/brandlens/brandlens/internal/models/serp"
)

func TestGA4ClientFetchDailyRowsPaginates(t *testing.T) {
	// 3 total rows served in pages of 2.
	allRows := []ga4.Row{
		{DimensionValues: []ga4.Value{{Value: "20260101"}}, MetricValues: ga4MetricValues("100")},
		{DimensionValues: []ga4.Value{{Value: "20260102"}}, MetricValues: ga4MetricValues("200")},
		{DimensionValues: []ga4.Value{{Value: "20260103"}}, MetricValues: ga4MetricValues("300")},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":runReport") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req ga4.RunReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		end := req.Offset + req.Limit
		if end > int64(len(allRows)) {
			end = int64(len(allRows))
		}
		resp := ga4.RunReportResponse{
			Rows:     allRows[req.Offset:end],
			RowCount: int64(len(allRows)),
		}
		writeJSON(t, w, resp)
	}))
	defer server.Close()

	client := NewGA4Client(&config.GA4Config{
		BaseURL:     server.URL,
		AccessToken: "test-token",
		PageSize:    2,
	})

	rows, err := client.FetchDailyRows(context.Background(), "123456789",
		time.Now().AddDate(0, 0, -3), time.Now())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows across pages, got %d", len(rows))
	}
	if rows[2].DimensionValues[0].Value != "20260103" {
		t.Errorf("unexpected last row: %+v", rows[2])
	}
}

func TestGA4ClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"insufficient permissions","status":"PERMISSION_DENIED"}}`)
	}))
	defer server.Close()

	client := NewGA4Client(&config.GA4Config{BaseURL: server.URL, AccessToken: "bad"})
	_, err := client.FetchDailyRows(context.Background(), "123456789",
		time.Now().AddDate(0, 0, -1), time.Now())
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "PERMISSION_DENIED") {
		t.Errorf("expected status and body in error, got %v", err)
	}
}

func TestSERPClientListKeywordsPaginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/42/keywords" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}

		page := serp.KeywordPage{Page: 1, PageSize: 2, TotalPages: 2, TotalItems: 3}
		switch r.URL.Query().Get("page") {
		case "1":
			page.Data = []serp.Keyword{
				{ID: 1, Phrase: "one", SearchVolume: 10, Tracked: true},
				{ID: 2, Phrase: "two", SearchVolume: 20, Tracked: true},
			}
		case "2":
			page.Page = 2
			page.Data = []serp.Keyword{
				{ID: 9_000_000_001, Phrase: "three", SearchVolume: 30, Tracked: true},
			}
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
		writeJSON(t, w, page)
	}))
	defer server.Close()

	client := NewSERPClient(&config.SERPConfig{
		BaseURL:  server.URL,
		APIKey:   "test-key",
		PageSize: 2,
	})

	keywords, err := client.ListKeywords(context.Background(), 42)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(keywords) != 3 {
		t.Fatalf("expected 3 keywords, got %d", len(keywords))
	}
	if keywords[2].ID != 9_000_000_001 {
		t.Errorf("64-bit id corrupted: %d", keywords[2].ID)
	}
}

func TestSERPClientListRankingsSendsWindow(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("from") != "2026-01-01" || q.Get("to") != "2026-01-31" {
			t.Errorf("unexpected window: from=%q to=%q", q.Get("from"), q.Get("to"))
		}
		writeJSON(t, w, serp.RankingPage{
			Data:       []serp.Ranking{{ID: 1, KeywordID: 1, CheckedOn: "2026-01-15", Position: 4}},
			Page:       1,
			TotalPages: 1,
		})
	}))
	defer server.Close()

	client := NewSERPClient(&config.SERPConfig{BaseURL: server.URL, APIKey: "k"})
	rankings, err := client.ListRankings(context.Background(), 42, from, to)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rankings) != 1 || rankings[0].Position != 4 {
		t.Errorf("unexpected rankings: %+v", rankings)
	}
}

func TestAIVClientCursorPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/workspaces/ws_abc/prompts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		switch r.URL.Query().Get("cursor") {
		case "":
			writeJSON(t, w, aiv.PromptPage{
				Data:       []aiv.Prompt{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}},
				NextCursor: "c2",
			})
		case "c2":
			writeJSON(t, w, aiv.PromptPage{
				Data: []aiv.Prompt{{ID: 3, Text: "c"}},
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer server.Close()

	client := NewAIVClient(&config.AIVConfig{BaseURL: server.URL, APIKey: "test-key"})
	prompts, err := client.ListPrompts(context.Background(), "ws_abc")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(prompts) != 3 {
		t.Fatalf("expected 3 prompts across cursor pages, got %d", len(prompts))
	}
}

func TestAIVClientRejectsRepeatingCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, aiv.PromptPage{
			Data:       []aiv.Prompt{{ID: 1, Text: "a"}},
			NextCursor: "stuck",
		})
	}))
	defer server.Close()

	client := NewAIVClient(&config.AIVConfig{BaseURL: server.URL, APIKey: "k"})
	// First page cursor "" -> "stuck"; second page returns "stuck" again.
	_, err := client.ListPrompts(context.Background(), "ws_abc")
	if err == nil || !strings.Contains(err.Error(), "repeating cursor") {
		t.Fatalf("expected repeating cursor error, got %v", err)
	}
}

func TestRateLimitRetryWithBackoff(t *testing.T) {
	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, serp.KeywordPage{
			Data:       []serp.Keyword{{ID: 1, Phrase: "one"}},
			TotalPages: 1,
		})
	}))
	defer server.Close()

	client := NewSERPClient(&config.SERPConfig{BaseURL: server.URL, APIKey: "k"})
	client.caller.retryBaseDelay = time.Millisecond

	keywords, err := client.ListKeywords(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(keywords) != 1 {
		t.Fatalf("expected 1 keyword, got %d", len(keywords))
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts (2 rate limited), got %d", attempts.Load())
	}
}

func TestRateLimitExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewSERPClient(&config.SERPConfig{BaseURL: server.URL, APIKey: "k"})
	client.caller.retryBaseDelay = time.Millisecond
	client.caller.maxRetries = 2

	_, err := client.ListKeywords(context.Background(), 42)
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestReadBodyForErrorTruncates(t *testing.T) {
	big := strings.Repeat("x", maxErrorBodySize+100)
	body := readBodyForError(strings.NewReader(big))
	if !strings.HasSuffix(string(body), "(truncated)") {
		t.Error("expected truncation marker on oversized body")
	}

	small := readBodyForError(strings.NewReader("short error"))
	if string(small) != "short error" {
		t.Errorf("unexpected body: %q", small)
	}
}

// ga4MetricValues builds a full metric value row where every count metric
// shares the same value.
func ga4MetricValues(v string) []ga4.Value {
	values := make([]ga4.Value, len(ga4Metrics))
	for i := range values {
		values[i] = ga4.Value{Value: v}
	}
	return values
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}
