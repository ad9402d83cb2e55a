// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/brandlens/brandlens/internal/metrics"
)

// maxErrorBodySize limits how much of a failed response body is read for
// error reporting, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads a response body for error reporting (max 64KB).
// Returns a placeholder if reading fails and marks truncated bodies.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// apiCaller is the shared HTTP layer of the provider clients: client-side
// rate limiting plus automatic HTTP 429 retry with exponential backoff
// (1s, 2s, 4s, 8s, 16s) honoring Retry-After.
type apiCaller struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
	provider       string
}

// newAPICaller builds a caller for one provider. requestsPerSec <= 0
// disables client-side throttling.
func newAPICaller(provider string, timeout time.Duration, requestsPerSec float64) apiCaller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	return apiCaller{
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        limiter,
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second,
		provider:       provider,
	}
}

// do executes a request with rate limiting and 429 backoff. build is called
// per attempt because request bodies cannot be replayed.
func (a *apiCaller) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		start := time.Now()
		resp, err := a.httpClient.Do(req)
		metrics.ProviderRequestDuration.WithLabelValues(a.provider).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Rate limited, close body and retry with backoff.
		_ = resp.Body.Close()
		metrics.ProviderRateLimitRetries.WithLabelValues(a.provider).Inc()

		if attempt == a.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", a.maxRetries)
			break
		}

		delay := a.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// decodeResponse checks the HTTP status and decodes the body into result.
// Non-2xx responses are reported with a bounded body excerpt.
func decodeResponse(resp *http.Response, provider string, result any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", provider, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", provider, err)
	}
	return nil
}
