// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/brandlens/brandlens/internal/logging"
	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/models/aiv"
	"github.com/brandlens/brandlens/internal/models/ga4"
	"github.com/brandlens/brandlens/internal/models/serp"
)

// GA4API is the GA4 surface the sync manager depends on. Implemented by
// GA4Client and its circuit-breaker wrapper; mocked in tests.
type GA4API interface {
	FetchDailyRows(ctx context.Context, property string, start, end time.Time) ([]ga4.Row, error)
	Ping(ctx context.Context, property string) error
}

// SERPAPI is the SERP provider surface the sync manager depends on.
type SERPAPI interface {
	ListKeywords(ctx context.Context, projectID int64) ([]serp.Keyword, error)
	ListRankings(ctx context.Context, projectID int64, from, to time.Time) ([]serp.Ranking, error)
	Ping(ctx context.Context, projectID int64) error
}

// AIVAPI is the AIV provider surface the sync manager depends on.
type AIVAPI interface {
	ListPrompts(ctx context.Context, workspaceID string) ([]aiv.Prompt, error)
	ListResponses(ctx context.Context, workspaceID string, from, to time.Time) ([]aiv.Response, error)
	ListCitations(ctx context.Context, workspaceID string, from, to time.Time) ([]aiv.Citation, error)
	Ping(ctx context.Context, workspaceID string) error
}

// breaker wraps provider calls with a shared circuit breaker configuration:
// opens at a 60% failure rate over at least 10 requests, allows 3 probe
// requests in half-open state, and waits 2 minutes before probing.
//
// The breaker uses real time for its interval and timeout calculations;
// tests should mock the wrapped client rather than the breaker.
type breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

func newBreaker(name string) *breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &breaker{cb: cb, name: name}
}

// execute runs a provider call through the breaker and updates metrics.
func (b *breaker) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", b.name).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			counts := b.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// castSlice type-asserts a breaker result back to its slice type.
func castSlice[T any](result any, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.([]T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GA4Breaker wraps a GA4API with circuit breaker protection.
type GA4Breaker struct {
	client GA4API
	b      *breaker
}

// NewGA4Breaker wraps client with the "ga4-api" breaker.
func NewGA4Breaker(client GA4API) *GA4Breaker {
	return &GA4Breaker{client: client, b: newBreaker("ga4-api")}
}

func (g *GA4Breaker) FetchDailyRows(ctx context.Context, property string, start, end time.Time) ([]ga4.Row, error) {
	return castSlice[ga4.Row](g.b.execute(func() (any, error) {
		return g.client.FetchDailyRows(ctx, property, start, end)
	}))
}

func (g *GA4Breaker) Ping(ctx context.Context, property string) error {
	_, err := g.b.execute(func() (any, error) {
		return nil, g.client.Ping(ctx, property)
	})
	return err
}

// SERPBreaker wraps a SERPAPI with circuit breaker protection.
type SERPBreaker struct {
	client SERPAPI
	b      *breaker
}

// NewSERPBreaker wraps client with the "serp-api" breaker.
func NewSERPBreaker(client SERPAPI) *SERPBreaker {
	return &SERPBreaker{client: client, b: newBreaker("serp-api")}
}

func (s *SERPBreaker) ListKeywords(ctx context.Context, projectID int64) ([]serp.Keyword, error) {
	return castSlice[serp.Keyword](s.b.execute(func() (any, error) {
		return s.client.ListKeywords(ctx, projectID)
	}))
}

func (s *SERPBreaker) ListRankings(ctx context.Context, projectID int64, from, to time.Time) ([]serp.Ranking, error) {
	return castSlice[serp.Ranking](s.b.execute(func() (any, error) {
		return s.client.ListRankings(ctx, projectID, from, to)
	}))
}

func (s *SERPBreaker) Ping(ctx context.Context, projectID int64) error {
	_, err := s.b.execute(func() (any, error) {
		return nil, s.client.Ping(ctx, projectID)
	})
	return err
}

// AIVBreaker wraps an AIVAPI with circuit breaker protection.
type AIVBreaker struct {
	client AIVAPI
	b      *breaker
}

// NewAIVBreaker wraps client with the "aiv-api" breaker.
func NewAIVBreaker(client AIVAPI) *AIVBreaker {
	return &AIVBreaker{client: client, b: newBreaker("aiv-api")}
}

func (a *AIVBreaker) ListPrompts(ctx context.Context, workspaceID string) ([]aiv.Prompt, error) {
	return castSlice[aiv.Prompt](a.b.execute(func() (any, error) {
		return a.client.ListPrompts(ctx, workspaceID)
	}))
}

func (a *AIVBreaker) ListResponses(ctx context.Context, workspaceID string, from, to time.Time) ([]aiv.Response, error) {
	return castSlice[aiv.Response](a.b.execute(func() (any, error) {
		return a.client.ListResponses(ctx, workspaceID, from, to)
	}))
}

func (a *AIVBreaker) ListCitations(ctx context.Context, workspaceID string, from, to time.Time) ([]aiv.Citation, error) {
	return castSlice[aiv.Citation](a.b.execute(func() (any, error) {
		return a.client.ListCitations(ctx, workspaceID, from, to)
	}))
}

func (a *AIVBreaker) Ping(ctx context.Context, workspaceID string) error {
	_, err := a.b.execute(func() (any, error) {
		return nil, a.client.Ping(ctx, workspaceID)
	})
	return err
}
