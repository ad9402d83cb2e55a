// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandlens/brandlens/internal/logging"
	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/models"
)

// maxReconcileBatch caps a single reconcile batch. Larger fetches are split;
// one batch is one transaction and one bulk existence check.
const maxReconcileBatch = 1000

// ReconcileStats summarizes one reconcile run.
type ReconcileStats struct {
	Fetched   int64                 `json:"fetched"`
	Inserted  int64                 `json:"inserted"`
	Updated   int64                 `json:"updated"`
	Unchanged int64                 `json:"unchanged"`
	Failed    int64                 `json:"failed"`
	Errors    []models.SyncJobError `json:"errors,omitempty"`
}

// Add merges another stats value into s.
func (s *ReconcileStats) Add(o ReconcileStats) {
	s.Fetched += o.Fetched
	s.Inserted += o.Inserted
	s.Updated += o.Updated
	s.Unchanged += o.Unchanged
	s.Failed += o.Failed
	s.Errors = append(s.Errors, o.Errors...)
}

// binding describes how one syncable entity maps onto its table. The
// reconcile engine is generic over the entity; each entity contributes a
// binding and nothing else.
type binding[T any] struct {
	// table is the target table name.
	table string
	// keyColumn is the UNIQUE external key column, the upsert conflict target.
	keyColumn string
	// columns is the full insert column list; keyColumn must be first.
	columns []string
	// key renders the record's external key for dedupe and error reporting.
	key func(T) string
	// keyArg returns the external key as a SQL parameter (int64 or string).
	keyArg func(T) any
	// args returns insert values aligned with columns.
	args func(T) []any
	// updateSet lists the columns rewritten on conflict. Bookkeeping columns
	// like synced_at belong here even though they never mark a row changed.
	updateSet []string
	// selectColumns and scan load the stored shape for change detection;
	// scan consumes one row and returns its external key.
	selectColumns []string
	scan          func(rowScanner) (string, T, error)
	// equal reports whether the incoming record would leave the stored row
	// unchanged. Bookkeeping timestamps must not participate.
	equal func(incoming, existing T) bool
	// validate rejects malformed records before they reach SQL. Optional.
	validate func(T) error
}

// rowScanner is the scanning subset of *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// upsertSQL builds the multi-row INSERT ... ON CONFLICT DO UPDATE statement
// for n records.
func (b *binding[T]) upsertSQL(n int) string {
	set := make([]string, 0, len(b.updateSet))
	for _, col := range b.updateSet {
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s",
		b.table,
		strings.Join(b.columns, ", "),
		buildValueTuples(n, len(b.columns)),
		b.keyColumn,
		strings.Join(set, ", "),
	)
}

// existingSQL builds the bulk existence check for n keys.
func (b *binding[T]) existingSQL(n int) string {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IN (%s)",
		strings.Join(b.selectColumns, ", "),
		b.table,
		b.keyColumn,
		buildInClause(n),
	)
}

// reconcile upserts records into the binding's table in batches.
//
// The input is deduplicated by external key first (last occurrence wins),
// then processed in batches of batchSize. Each batch runs one bulk existence
// check to split its records into inserts, updates, and unchanged, and
// writes the changed records with a single multi-row upsert in one
// transaction. A failed batch rolls back and is retried record by record so
// one malformed record cannot sink the rest; per-record failures are
// collected in Errors keyed by external id. progress, when non-nil, is
// called after every batch with records processed so far and the
// deduplicated total.
func reconcile[T any](ctx context.Context, db *DB, b *binding[T], records []T, batchSize int, progress func(done, total int64)) (ReconcileStats, error) {
	stats := ReconcileStats{Fetched: int64(len(records))}
	if len(records) == 0 {
		return stats, nil
	}
	if batchSize <= 0 || batchSize > maxReconcileBatch {
		batchSize = maxReconcileBatch
	}

	deduped := dedupeByKey(b, records)
	total := int64(len(deduped))

	var done int64
	for start := 0; start < len(deduped); start += batchSize {
		end := start + batchSize
		if end > len(deduped) {
			end = len(deduped)
		}
		batch := deduped[start:end]

		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batchStats, err := reconcileBatch(ctx, db, b, batch)
		stats.Inserted += batchStats.Inserted
		stats.Updated += batchStats.Updated
		stats.Unchanged += batchStats.Unchanged
		stats.Failed += batchStats.Failed
		stats.Errors = append(stats.Errors, batchStats.Errors...)
		if err != nil {
			return stats, err
		}

		done += int64(len(batch))
		if progress != nil {
			progress(done, total)
		}
	}

	metrics.UpsertRecords.WithLabelValues(b.table, "inserted").Add(float64(stats.Inserted))
	metrics.UpsertRecords.WithLabelValues(b.table, "updated").Add(float64(stats.Updated))
	metrics.UpsertRecords.WithLabelValues(b.table, "unchanged").Add(float64(stats.Unchanged))
	metrics.UpsertRecords.WithLabelValues(b.table, "failed").Add(float64(stats.Failed))

	return stats, nil
}

// dedupeByKey collapses duplicate external keys, keeping the last occurrence
// in first-occurrence order.
func dedupeByKey[T any](b *binding[T], records []T) []T {
	index := make(map[string]int, len(records))
	deduped := make([]T, 0, len(records))
	for _, rec := range records {
		k := b.key(rec)
		if i, ok := index[k]; ok {
			deduped[i] = rec
			continue
		}
		index[k] = len(deduped)
		deduped = append(deduped, rec)
	}
	return deduped
}

// pendingWrite is one changed record awaiting its upsert.
type pendingWrite[T any] struct {
	record T
	isNew  bool
}

// reconcileBatch processes one batch. Returns an error only for
// infrastructure failures (context cancelled, connection lost);
// record-level failures land in the stats.
func reconcileBatch[T any](ctx context.Context, db *DB, b *binding[T], batch []T) (ReconcileStats, error) {
	var stats ReconcileStats

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	metrics.UpsertBatchSize.Observe(float64(len(batch)))

	// Validate up front so malformed records never reach SQL.
	valid := make([]T, 0, len(batch))
	for _, rec := range batch {
		if b.validate != nil {
			if err := b.validate(rec); err != nil {
				stats.Failed++
				stats.Errors = append(stats.Errors, models.SyncJobError{
					ExternalID: b.key(rec),
					Error:      err.Error(),
				})
				continue
			}
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return stats, nil
	}

	existing, err := loadExisting(ctx, db, b, valid)
	if err != nil {
		return stats, err
	}

	var writes []pendingWrite[T]
	for _, rec := range valid {
		stored, found := existing[b.key(rec)]
		switch {
		case !found:
			writes = append(writes, pendingWrite[T]{record: rec, isNew: true})
		case b.equal(rec, stored):
			stats.Unchanged++
		default:
			writes = append(writes, pendingWrite[T]{record: rec, isNew: false})
		}
	}
	if len(writes) == 0 {
		return stats, nil
	}

	if err := writeBulk(ctx, db, b, writes); err != nil {
		logging.Warn().Err(err).Str("table", b.table).Int("records", len(writes)).
			Msg("Bulk upsert failed, falling back to per-record writes")
		metrics.UpsertBatchFallbacks.WithLabelValues(b.table).Inc()
		return writePerRecord(ctx, db, b, writes, stats)
	}

	for _, w := range writes {
		if w.isNew {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}

// loadExisting runs the bulk existence check for a batch and returns the
// stored rows keyed by external key.
func loadExisting[T any](ctx context.Context, db *DB, b *binding[T], batch []T) (map[string]T, error) {
	keys := make([]any, 0, len(batch))
	for _, rec := range batch {
		keys = append(keys, b.keyArg(rec))
	}

	rows, err := db.conn.QueryContext(ctx, b.existingSQL(len(keys)), keys...)
	if err != nil {
		return nil, fmt.Errorf("failed bulk existence check on %s: %w", b.table, err)
	}
	defer closeQuietly(rows)

	existing := make(map[string]T, len(batch))
	for rows.Next() {
		key, rec, err := b.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan existing %s row: %w", b.table, err)
		}
		existing[key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing %s rows: %w", b.table, err)
	}
	return existing, nil
}

// writeBulk writes all changed records of a batch with one multi-row upsert
// inside one transaction.
func writeBulk[T any](ctx context.Context, db *DB, b *binding[T], writes []pendingWrite[T]) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	args := make([]any, 0, len(writes)*len(b.columns))
	for _, w := range writes {
		args = append(args, b.args(w.record)...)
	}

	if _, err := tx.ExecContext(ctx, b.upsertSQL(len(writes)), args...); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// writePerRecord retries a failed batch one record at a time, isolating the
// records that actually fail.
func writePerRecord[T any](ctx context.Context, db *DB, b *binding[T], writes []pendingWrite[T], stats ReconcileStats) (ReconcileStats, error) {
	sqlOne := b.upsertSQL(1)

	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if _, err := db.conn.ExecContext(ctx, sqlOne, b.args(w.record)...); err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, models.SyncJobError{
				ExternalID: b.key(w.record),
				Error:      err.Error(),
			})
			continue
		}
		if w.isNew {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}
