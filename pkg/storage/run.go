package storage

import (
	"context"

	"emaildomains/pkg/domain"
)

// RunStorage persists and queries recorded aggregation runs.
type RunStorage interface {
	// StoreRun records a finished run together with its per-source statistics.
	StoreRun(ctx context.Context, run domain.Run) error
	// RecentRuns returns up to limit runs ordered by generation time, newest
	// first, without their per-source statistics.
	RecentRuns(ctx context.Context, limit uint) ([]domain.Run, error)
	// RunStats returns the per-source statistics table of one recorded run,
	// sorted by source ID. It returns an empty slice for unknown runs.
	RunStats(ctx context.Context, id domain.RunID) ([]domain.SourceStats, error)
}
