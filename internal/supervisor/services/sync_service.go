// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package services

import "context"

// SyncRunner matches the sync manager's scheduler loop.
type SyncRunner interface {
	Run(ctx context.Context) error
}

// SyncService runs the sync scheduler under supervision. Run blocks until
// its context is cancelled, which maps directly onto suture's contract.
type SyncService struct {
	runner SyncRunner
}

// NewSyncService wraps the sync manager.
func NewSyncService(runner SyncRunner) *SyncService {
	return &SyncService{runner: runner}
}

// Serve implements suture.Service.
func (s *SyncService) Serve(ctx context.Context) error {
	return s.runner.Run(ctx)
}

// String identifies the service in suture logs.
func (s *SyncService) String() string {
	return "sync-scheduler"
}
