// Package store persists run history and failed-sync retries locally.
// It is operational telemetry only: the external records store remains the
// source of truth for leads, and nothing in the pipeline decision path
// reads from here.
package store

import (
	"context"

	"github.com/yobot/leadflow/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Source string          `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the local persistence interface for the intake pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, lead model.Lead) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.IntakeResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Sync retries: records written but not forwarded to the CRM, parked
	// for the reconcile command.
	ParkSyncRetry(ctx context.Context, entry model.SyncRetry) error
	ListSyncRetries(ctx context.Context, limit int) ([]model.SyncRetry, error)
	ResolveSyncRetry(ctx context.Context, id string) error
	BumpSyncRetry(ctx context.Context, id string, lastError string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
