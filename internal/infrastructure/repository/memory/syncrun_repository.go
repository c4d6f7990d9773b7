package memory

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/syncrun"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

type SyncRunRepository struct {
	mu     sync.Mutex
	nextID int64
	runs   map[int64]syncrun.Run
}

func NewSyncRunRepository() *SyncRunRepository {
	return &SyncRunRepository{
		nextID: 1,
		runs:   make(map[int64]syncrun.Run),
	}
}

func (r *SyncRunRepository) Create(_ context.Context, kind string, startedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.runs[id] = syncrun.Run{
		ID:        id,
		Kind:      kind,
		Status:    syncrun.StatusInProgress,
		StartedAt: startedAt,
	}
	return id, nil
}

func (r *SyncRunRepository) AccumulateProgress(_ context.Context, runID int64, c syncrun.Counters) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return crerr.Newf("sync run %d not found", runID)
	}

	run.Counters.Fetched = max(run.Counters.Fetched, c.Fetched)
	run.Counters.Inserted = max(run.Counters.Inserted, c.Inserted)
	run.Counters.Updated = max(run.Counters.Updated, c.Updated)
	run.Counters.Failed = max(run.Counters.Failed, c.Failed)
	r.runs[runID] = run
	return nil
}

func (r *SyncRunRepository) Finalize(_ context.Context, runID int64, status syncrun.Status, c syncrun.Counters, errorMessage string, recordErrors []string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return crerr.Newf("sync run %d not found", runID)
	}
	if run.Status != syncrun.StatusInProgress {
		return crerr.Mark(crerr.Newf("sync run %d is %s", runID, run.Status), usecase.ErrRunFinalized)
	}

	duration := int(completedAt.Sub(run.StartedAt) / time.Second)
	run.Status = status
	run.Counters = c
	run.ErrorMessage = errorMessage
	run.RecordErrors = append([]string(nil), recordErrors...)
	run.CompletedAt = &completedAt
	run.DurationSeconds = &duration
	r.runs[runID] = run
	return nil
}

func (r *SyncRunRepository) Get(_ context.Context, runID int64) (*syncrun.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return nil, nil
	}
	out := run
	out.RecordErrors = append([]string(nil), run.RecordErrors...)
	return &out, nil
}
