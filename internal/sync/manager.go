// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Package sync fetches marketing data from the provider APIs (GA4, SERP,
// AIV) and reconciles it into the local database. The Manager owns the
// periodic schedule and the on-demand trigger path; each run is tracked as
// a sync job the dashboard polls.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/database"
	"github.com/brandlens/brandlens/internal/logging"
	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/models"
)

// jobTimeout bounds one triggered sync run.
const jobTimeout = 30 * time.Minute

var (
	// ErrSyncInProgress is returned when a brand/source pair already has a
	// pending or running job.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrSourceDisabled is returned for sources switched off in config.
	ErrSourceDisabled = errors.New("source is disabled")
	// ErrSourceNotConfigured is returned when the brand has no binding for
	// the source (no GA4 property, SERP project, or AIV workspace).
	ErrSourceNotConfigured = errors.New("source not configured for brand")
)

// Manager coordinates scheduled and on-demand sync runs.
//
// syncMu serializes runs: DuckDB favors a single writer, and overlapping
// runs of the same source would race on their upsert batches.
type Manager struct {
	db   *database.DB
	cfg  *config.Config
	ga4  GA4API
	serp SERPAPI
	aiv  AIVAPI

	syncMu sync.Mutex
	// triggerMu serializes the active-job check with job creation so two
	// simultaneous triggers cannot both pass the guard.
	triggerMu sync.Mutex
	wg        sync.WaitGroup
}

// NewManager creates a sync manager. Provider clients for disabled sources
// may be nil.
func NewManager(db *database.DB, cfg *config.Config, ga4 GA4API, serp SERPAPI, aiv AIVAPI) *Manager {
	return &Manager{db: db, cfg: cfg, ga4: ga4, serp: serp, aiv: aiv}
}

// Run executes the periodic sync schedule until ctx is cancelled. When
// initial_sync is set, a full pass runs immediately instead of waiting for
// the first tick.
func (m *Manager) Run(ctx context.Context) error {
	logging.Info().Dur("interval", m.cfg.Sync.Interval).
		Strs("sources", m.cfg.EnabledSources()).Msg("Sync scheduler started")

	if m.cfg.Sync.InitialSync {
		m.syncAll(ctx)
	}

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.syncAll(ctx)
		case <-ctx.Done():
			logging.Info().Msg("Sync scheduler stopping")
			m.wg.Wait()
			return ctx.Err()
		}
	}
}

// TriggerSync starts an on-demand sync of one source for one brand and
// returns the pending job immediately; the run proceeds in the background.
func (m *Manager) TriggerSync(ctx context.Context, brandID int64, source string) (*models.SyncJob, error) {
	if !m.sourceEnabled(source) {
		return nil, fmt.Errorf("%w: %s", ErrSourceDisabled, source)
	}

	brand, err := m.db.GetBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if !brandHasSource(brand, source) {
		return nil, fmt.Errorf("%w: %s for brand %q", ErrSourceNotConfigured, source, brand.Slug)
	}

	job, err := m.claimJob(ctx, brand, source)
	if err != nil {
		return nil, err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		m.runJob(runCtx, brand, job)
	}()

	return job, nil
}

// claimJob checks for an active job and creates a new pending one under
// triggerMu, so concurrent callers resolve to exactly one job per
// brand/source pair.
func (m *Manager) claimJob(ctx context.Context, brand *models.Brand, source string) (*models.SyncJob, error) {
	m.triggerMu.Lock()
	defer m.triggerMu.Unlock()

	active, err := m.db.HasActiveSyncJob(ctx, brand.ID, source)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("%w: %s for brand %q", ErrSyncInProgress, source, brand.Slug)
	}
	return m.db.CreateSyncJob(ctx, brand.ID, source)
}

// syncAll runs every enabled source for every brand bound to it, one job
// at a time.
func (m *Manager) syncAll(ctx context.Context) {
	brands, err := m.db.ListBrands(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Scheduled sync failed to list brands")
		return
	}

	for _, brand := range brands {
		for _, source := range m.cfg.EnabledSources() {
			if ctx.Err() != nil {
				return
			}
			if !brandHasSource(&brand, source) {
				continue
			}
			job, err := m.claimJob(ctx, &brand, source)
			if errors.Is(err, ErrSyncInProgress) {
				logging.Debug().Str("brand", brand.Slug).Str("source", source).
					Msg("Sync already in progress, skipping scheduled run")
				continue
			}
			if err != nil {
				logging.Error().Err(err).Str("brand", brand.Slug).Str("source", source).
					Msg("Failed to create scheduled sync job")
				continue
			}
			m.runJob(ctx, &brand, job)
		}
	}
}

// runJob executes one sync job end to end: start, fetch+reconcile with
// retry, finish with totals. Failures never propagate; they land on the
// job row and in the logs.
func (m *Manager) runJob(ctx context.Context, brand *models.Brand, job *models.SyncJob) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	log := logging.With().
		Str("job_id", job.ID.String()).
		Str("brand", brand.Slug).
		Str("source", job.Source).
		Logger()

	if err := m.db.StartSyncJob(ctx, job.ID); err != nil {
		log.Error().Err(err).Msg("Failed to start sync job")
		return
	}
	log.Info().Msg("Sync started")

	start := time.Now()
	stats, err := m.runWithRetry(ctx, brand, job)
	duration := time.Since(start)
	metrics.RecordSyncRun(job.Source, duration, stats.Fetched, err)

	if err != nil {
		metrics.SyncErrors.WithLabelValues(job.Source, "provider_api").Inc()
		log.Error().Err(err).Dur("duration", duration).Msg("Sync failed")
		if dbErr := m.db.FailSyncJob(ctx, job.ID, job.Source, err.Error(), stats); dbErr != nil {
			log.Error().Err(dbErr).Msg("Failed to record sync failure")
		}
		return
	}

	log.Info().
		Dur("duration", duration).
		Int64("fetched", stats.Fetched).
		Int64("inserted", stats.Inserted).
		Int64("updated", stats.Updated).
		Int64("unchanged", stats.Unchanged).
		Int64("failed", stats.Failed).
		Msg("Sync completed")
	if dbErr := m.db.CompleteSyncJob(ctx, job.ID, job.Source, stats); dbErr != nil {
		log.Error().Err(dbErr).Msg("Failed to record sync completion")
	}
}

// runWithRetry retries a full source sync with doubling delays. Reconcile
// is idempotent, so re-running a partially applied attempt is safe.
func (m *Manager) runWithRetry(ctx context.Context, brand *models.Brand, job *models.SyncJob) (database.ReconcileStats, error) {
	var (
		stats   database.ReconcileStats
		lastErr error
	)

	attempts := m.cfg.Sync.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := m.cfg.Sync.RetryDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		stats, lastErr = m.syncSource(ctx, brand, job)
		if lastErr == nil {
			return stats, nil
		}
		if ctx.Err() != nil {
			return stats, lastErr
		}
		if attempt < attempts {
			logging.Warn().Err(lastErr).Str("source", job.Source).
				Int("attempt", attempt).Dur("retry_in", delay).Msg("Sync attempt failed, retrying")
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return stats, lastErr
			}
		}
	}
	return stats, fmt.Errorf("sync failed after %d attempts: %w", attempts, lastErr)
}

// syncSource dispatches to the per-provider syncer.
func (m *Manager) syncSource(ctx context.Context, brand *models.Brand, job *models.SyncJob) (database.ReconcileStats, error) {
	switch job.Source {
	case "ga4":
		return m.syncGA4(ctx, brand, job)
	case "serp":
		return m.syncSERP(ctx, brand, job)
	case "aiv":
		return m.syncAIV(ctx, brand, job)
	default:
		return database.ReconcileStats{}, fmt.Errorf("unknown sync source %q", job.Source)
	}
}

// jobProgressPhase maps reconcile progress onto one slice of a job's 0-100
// progress range: base is where the phase starts, span how much it covers.
func (m *Manager) jobProgressPhase(ctx context.Context, job *models.SyncJob, fetched, base, span int64) func(done, total int64) {
	return func(done, total int64) {
		percent := base
		if total > 0 {
			percent = base + done*span/total
		}
		if err := m.db.UpdateSyncJobProgress(ctx, job.ID, percent, fetched); err != nil {
			logging.Debug().Err(err).Str("job_id", job.ID.String()).
				Msg("Failed to update job progress")
		}
	}
}

// sourceEnabled reports whether a source is switched on in config.
func (m *Manager) sourceEnabled(source string) bool {
	switch source {
	case "ga4":
		return m.cfg.GA4.Enabled && m.ga4 != nil
	case "serp":
		return m.cfg.SERP.Enabled && m.serp != nil
	case "aiv":
		return m.cfg.AIV.Enabled && m.aiv != nil
	default:
		return false
	}
}

// brandHasSource reports whether the brand carries the provider binding
// the source needs.
func brandHasSource(brand *models.Brand, source string) bool {
	switch source {
	case "ga4":
		return brand.GA4PropertyID != ""
	case "serp":
		return brand.SERPProjectID != 0
	case "aiv":
		return brand.AIVWorkspaceID != ""
	default:
		return false
	}
}
