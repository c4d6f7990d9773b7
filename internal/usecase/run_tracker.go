package usecase

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/syncrun"
	"github.com/ujpest-analytics/transferroom-sync/internal/platform/logging"
)

// maxStoredRecordErrors caps how many per-record failure messages one run
// keeps in its audit row; the rest are only reflected in the failed counter.
const maxStoredRecordErrors = 10

// RunTracker owns the lifecycle of sync-run audit records: one row per
// ingestion attempt, created in_progress, finalized exactly once.
type RunTracker struct {
	runs   syncrun.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewRunTracker(runs syncrun.Repository, logger *logging.Logger) *RunTracker {
	if logger == nil {
		logger = logging.Default()
	}
	return &RunTracker{
		runs:   runs,
		logger: logger,
		now:    time.Now,
	}
}

func (t *RunTracker) Begin(ctx context.Context, kind string) (int64, error) {
	runID, err := t.runs.Create(ctx, kind, t.now().UTC())
	if err != nil {
		return 0, crerr.Wrapf(err, "create %s sync run", kind)
	}

	t.logger.InfoContext(ctx, "sync run started", "kind", kind, "run_id", runID)
	return runID, nil
}

// RecordProgress publishes cumulative counters mid-run so an operator can
// watch a long ingestion move. Counters only ever grow; a slow write landing
// after a newer one cannot roll the totals back.
func (t *RunTracker) RecordProgress(ctx context.Context, runID int64, c syncrun.Counters) error {
	if err := t.runs.AccumulateProgress(ctx, runID, c); err != nil {
		return crerr.Wrapf(err, "record progress for run %d", runID)
	}
	return nil
}

// Finish moves the run to its terminal status. fatalErr, when non-nil, is
// recorded as the run's error message; recordErrors beyond the stored cap are
// dropped from the audit row.
func (t *RunTracker) Finish(ctx context.Context, runID int64, status syncrun.Status, c syncrun.Counters, fatalErr error, recordErrors []string) error {
	errorMessage := ""
	if fatalErr != nil {
		errorMessage = fatalErr.Error()
	}
	if len(recordErrors) > maxStoredRecordErrors {
		recordErrors = recordErrors[:maxStoredRecordErrors]
	}

	completedAt := t.now().UTC()
	if err := t.runs.Finalize(ctx, runID, status, c, errorMessage, recordErrors, completedAt); err != nil {
		return crerr.Wrapf(err, "finalize run %d", runID)
	}

	t.logger.InfoContext(ctx, "sync run finished",
		"run_id", runID,
		"status", string(status),
		"fetched", c.Fetched,
		"inserted", c.Inserted,
		"updated", c.Updated,
		"failed", c.Failed,
	)
	return nil
}
