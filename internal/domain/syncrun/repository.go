package syncrun

import (
	"context"
	"time"
)

// Repository persists sync-run audit records.
type Repository interface {
	Create(ctx context.Context, kind string, startedAt time.Time) (int64, error)

	// AccumulateProgress raises counters monotonically; a call carrying
	// stale lower totals never regresses the stored values.
	AccumulateProgress(ctx context.Context, runID int64, c Counters) error

	// Finalize moves an in_progress run to a terminal status. A run that
	// already reached a terminal status is left untouched and the call
	// reports a conflict.
	Finalize(ctx context.Context, runID int64, status Status, c Counters, errorMessage string, recordErrors []string, completedAt time.Time) error

	Get(ctx context.Context, runID int64) (*Run, error)
}
