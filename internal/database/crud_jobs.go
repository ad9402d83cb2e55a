// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/brandlens/brandlens/internal/logging"
	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/models"
)

// maxStoredJobErrors caps the error list persisted per job. A pathological
// run can fail thousands of records; the job row keeps the first N and the
// total_failed counter carries the real magnitude.
const maxStoredJobErrors = 100

const syncJobColumns = `id, brand_id, source, status, progress,
	total_fetched, total_inserted, total_updated, total_unchanged, total_failed,
	errors, error, created_at, started_at, finished_at`

// CreateSyncJob records a new pending sync job and returns it.
func (db *DB) CreateSyncJob(ctx context.Context, brandID int64, source string) (*models.SyncJob, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	job := &models.SyncJob{
		ID:        uuid.New(),
		BrandID:   brandID,
		Source:    source,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sync_jobs (id, brand_id, source, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.BrandID, job.Source, job.Status, job.CreatedAt)
	metrics.RecordDBQuery("insert", "sync_jobs", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync job: %w", err)
	}
	return job, nil
}

// StartSyncJob transitions a pending job to running.
func (db *DB) StartSyncJob(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE sync_jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		models.JobStatusRunning, time.Now().UTC(), id, models.JobStatusPending)
	metrics.RecordDBQuery("update", "sync_jobs", start, err)
	if err != nil {
		return fmt.Errorf("failed to start sync job %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	metrics.JobsActive.Inc()
	return nil
}

// UpdateSyncJobProgress updates a running job's progress percentage and
// fetched count. Progress is clamped to 0..100.
func (db *DB) UpdateSyncJobProgress(ctx context.Context, id uuid.UUID, progress, fetched int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sync_jobs SET progress = ?, total_fetched = ? WHERE id = ?`,
		progress, fetched, id)
	metrics.RecordDBQuery("update", "sync_jobs", start, err)
	if err != nil {
		return fmt.Errorf("failed to update sync job %s progress: %w", id, err)
	}
	return nil
}

// CompleteSyncJob finishes a job with its reconcile totals.
func (db *DB) CompleteSyncJob(ctx context.Context, id uuid.UUID, source string, stats ReconcileStats) error {
	return db.finishSyncJob(ctx, id, source, models.JobStatusCompleted, "", stats)
}

// FailSyncJob finishes a job as failed, keeping any partial totals.
func (db *DB) FailSyncJob(ctx context.Context, id uuid.UUID, source, errMsg string, stats ReconcileStats) error {
	return db.finishSyncJob(ctx, id, source, models.JobStatusFailed, errMsg, stats)
}

func (db *DB) finishSyncJob(ctx context.Context, id uuid.UUID, source, status, errMsg string, stats ReconcileStats) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stored := stats.Errors
	if len(stored) > maxStoredJobErrors {
		logging.Warn().Str("job_id", id.String()).Int("errors", len(stored)).
			Int("kept", maxStoredJobErrors).Msg("Truncating stored job errors")
		stored = stored[:maxStoredJobErrors]
	}
	errorsJSON, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal job errors: %w", err)
	}

	// Completed runs land at 100; failed runs keep the progress they reached.
	progressExpr := "progress"
	if status == models.JobStatusCompleted {
		progressExpr = "100"
	}

	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE sync_jobs
		 SET status = ?, progress = `+progressExpr+`, total_fetched = ?, total_inserted = ?,
		     total_updated = ?, total_unchanged = ?, total_failed = ?,
		     errors = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		status, stats.Fetched, stats.Inserted, stats.Updated, stats.Unchanged,
		stats.Failed, string(errorsJSON), errMsg, time.Now().UTC(), id)
	metrics.RecordDBQuery("update", "sync_jobs", start, err)
	if err != nil {
		return fmt.Errorf("failed to finish sync job %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	metrics.JobsActive.Dec()
	metrics.JobsTotal.WithLabelValues(source, status).Inc()
	return nil
}

// GetSyncJob fetches one job by id.
func (db *DB) GetSyncJob(ctx context.Context, id uuid.UUID) (*models.SyncJob, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+syncJobColumns+` FROM sync_jobs WHERE id = ?`, id)
	job, err := scanSyncJob(row)
	metrics.RecordDBQuery("select", "sync_jobs", start, err)
	return job, err
}

// ListSyncJobs returns recent jobs, newest first. brandID and source filter
// when non-zero / non-empty.
func (db *DB) ListSyncJobs(ctx context.Context, brandID int64, source string, limit int) ([]models.SyncJob, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `SELECT ` + syncJobColumns + ` FROM sync_jobs WHERE 1=1`
	args := make([]any, 0, 3)
	if brandID > 0 {
		query += ` AND brand_id = ?`
		args = append(args, brandID)
	}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "sync_jobs", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync jobs: %w", err)
	}
	defer closeQuietly(rows)

	jobs := make([]models.SyncJob, 0, limit)
	for rows.Next() {
		job, err := scanSyncJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync jobs: %w", err)
	}
	return jobs, nil
}

// HasActiveSyncJob reports whether a pending or running job exists for the
// brand and source. Used to reject duplicate concurrent triggers.
func (db *DB) HasActiveSyncJob(ctx context.Context, brandID int64, source string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_jobs
		 WHERE brand_id = ? AND source = ? AND status IN (?, ?)`,
		brandID, source, models.JobStatusPending, models.JobStatusRunning).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check active sync jobs: %w", err)
	}
	return n > 0, nil
}

// scanSyncJob scans one job row, mapping sql.ErrNoRows to ErrNotFound.
func scanSyncJob(row rowScanner) (*models.SyncJob, error) {
	var (
		job        models.SyncJob
		errorsJSON string
	)
	err := row.Scan(&job.ID, &job.BrandID, &job.Source, &job.Status,
		&job.Progress, &job.TotalFetched, &job.TotalInserted, &job.TotalUpdated,
		&job.TotalUnchanged, &job.TotalFailed, &errorsJSON, &job.Error,
		&job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync job: %w", err)
	}
	if errorsJSON != "" && errorsJSON != "[]" {
		if err := json.Unmarshal([]byte(errorsJSON), &job.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode sync job errors: %w", err)
		}
	}
	return &job, nil
}
