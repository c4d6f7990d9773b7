package usecase

import (
	"context"
	"fmt"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/syncrun"
	"github.com/ujpest-analytics/transferroom-sync/internal/normalize"
	"github.com/ujpest-analytics/transferroom-sync/internal/platform/logging"
)

const (
	KindPlayers      = "players"
	KindCompetitions = "competitions"
)

// SourceProvider yields raw provider payloads one page at a time. hasMore is
// truthful: false means the kind is exhausted and no further page exists.
type SourceProvider interface {
	FetchPage(ctx context.Context, kind string, page, limit int) ([]map[string]any, bool, error)
}

type SyncConfig struct {
	// PageSize is the per-request record limit passed to the source.
	PageSize int
	// BatchSize is the progress-flush cadence in records.
	BatchSize int
	// MaxRecordFailures aborts a kind once exceeded; zero means unlimited.
	MaxRecordFailures int
	// TestModeCap bounds test-mode invocations.
	TestModeCap int
	// KindWorkers sizes the worker pool for full-mode runs.
	KindWorkers int
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.PageSize <= 0 {
		c.PageSize = 10000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.TestModeCap <= 0 {
		c.TestModeCap = 100
	}
	if c.KindWorkers <= 0 {
		c.KindWorkers = 2
	}
	return c
}

// RunOptions selects what one invocation ingests. An empty Kinds means every
// known kind; MaxRecords caps per-kind intake; Test applies the test-mode cap.
type RunOptions struct {
	Kinds      []string
	MaxRecords int
	Test       bool
}

// KindReport is the outcome of one kind's ingestion. Err is the fatal error
// that failed the run, nil when it completed; per-record failures only show
// up in Counters.Failed.
type KindReport struct {
	Kind     string
	RunID    int64
	Status   syncrun.Status
	Counters syncrun.Counters
	Err      error
}

type RunReport struct {
	Kinds []KindReport
}

// Failed reports whether any kind ended in a fatal failure.
func (r RunReport) Failed() bool {
	for _, k := range r.Kinds {
		if k.Err != nil {
			return true
		}
	}
	return false
}

// SyncService drives full ingestion runs: per kind it opens an audit run,
// walks source pages with the next page prefetched while the current one
// upserts, counts per-record failures without stopping, and finalizes the
// run exactly once whether it completes, fails, or is cancelled.
type SyncService struct {
	source  SourceProvider
	upserts *UpsertService
	tracker *RunTracker
	cfg     SyncConfig
	logger  *logging.Logger
}

func NewSyncService(source SourceProvider, upserts *UpsertService, tracker *RunTracker, cfg SyncConfig, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		source:  source,
		upserts: upserts,
		tracker: tracker,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Run ingests the requested kinds. A single kind runs inline; multiple kinds
// are dispatched on a worker pool, one worker per kind, so change ordering
// within a kind is preserved.
func (s *SyncService) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = []string{KindPlayers, KindCompetitions}
	}
	for _, kind := range kinds {
		if kind != KindPlayers && kind != KindCompetitions {
			return RunReport{}, crerr.Newf("unknown entity kind %q", kind)
		}
	}

	report := RunReport{Kinds: make([]KindReport, len(kinds))}
	if len(kinds) == 1 {
		report.Kinds[0] = s.syncKind(ctx, kinds[0], opts)
		return report, nil
	}

	pool, err := ants.NewPool(s.cfg.KindWorkers)
	if err != nil {
		return RunReport{}, crerr.Wrap(err, "create sync worker pool")
	}
	defer pool.Release()

	var wg conc.WaitGroup
	for i, kind := range kinds {
		i, kind := i, kind
		done := make(chan struct{})
		if err := pool.Submit(func() {
			defer close(done)
			report.Kinds[i] = s.syncKind(ctx, kind, opts)
		}); err != nil {
			return RunReport{}, crerr.Wrapf(err, "submit %s sync", kind)
		}
		wg.Go(func() { <-done })
	}
	wg.Wait()

	return report, nil
}

func (s *SyncService) syncKind(ctx context.Context, kind string, opts RunOptions) (report KindReport) {
	recordCap := 0
	if opts.Test {
		recordCap = s.cfg.TestModeCap
	}
	if opts.MaxRecords > 0 && (recordCap == 0 || opts.MaxRecords < recordCap) {
		recordCap = opts.MaxRecords
	}

	report = KindReport{Kind: kind, Status: syncrun.StatusFailed}

	runID, err := s.tracker.Begin(ctx, kind)
	if err != nil {
		report.Err = err
		return report
	}
	report.RunID = runID

	var (
		counters     syncrun.Counters
		recordErrors []string
		fatal        error
	)

	defer func() {
		status := syncrun.StatusCompleted
		if fatal != nil {
			status = syncrun.StatusFailed
		}
		if err := s.tracker.Finish(ctx, runID, status, counters, fatal, recordErrors); err != nil {
			s.logger.ErrorContext(ctx, "finalize sync run failed", "run_id", runID, "error", err)
		}
		report.Status = status
		report.Counters = counters
		report.Err = fatal
	}()

	limit := s.cfg.PageSize
	if recordCap > 0 && recordCap < limit {
		limit = recordCap
	}

	records, hasMore, err := s.source.FetchPage(ctx, kind, 0, limit)
	if err != nil {
		fatal = crerr.Wrapf(err, "fetch %s page 0", kind)
		return report
	}

	for page := 0; ; page++ {
		var (
			next     []map[string]any
			nextMore bool
			nextErr  error
		)
		var prefetch conc.WaitGroup
		if hasMore {
			nextPage := page + 1
			prefetch.Go(func() {
				next, nextMore, nextErr = s.source.FetchPage(ctx, kind, nextPage, limit)
			})
		}

		fatal = s.processPage(ctx, kind, runID, records, recordCap, &counters, &recordErrors)
		prefetch.Wait()
		if fatal != nil {
			return report
		}
		if recordCap > 0 && counters.Fetched >= recordCap {
			return report
		}
		if !hasMore {
			return report
		}
		if nextErr != nil {
			fatal = crerr.Wrapf(nextErr, "fetch %s page %d", kind, page+1)
			return report
		}
		records, hasMore = next, nextMore
	}
}

func (s *SyncService) processPage(ctx context.Context, kind string, runID int64, records []map[string]any, recordCap int, counters *syncrun.Counters, recordErrors *[]string) error {
	for _, raw := range records {
		if recordCap > 0 && counters.Fetched >= recordCap {
			return nil
		}
		counters.Fetched++

		outcome, err := s.upsertRaw(ctx, kind, raw, runID)
		if err != nil {
			// Validation and persistence failures alike cost one record;
			// only the operator threshold ends the kind early.
			counters.Failed++
			*recordErrors = append(*recordErrors, fmt.Sprintf("%s record %s: %v", kind, normalize.SourceLabel(kind, raw), err))
			if s.cfg.MaxRecordFailures > 0 && counters.Failed > s.cfg.MaxRecordFailures {
				return crerr.Newf("%s sync aborted: %d record failures exceed threshold %d", kind, counters.Failed, s.cfg.MaxRecordFailures)
			}
		} else {
			switch outcome.Result {
			case ResultInserted:
				counters.Inserted++
			case ResultUpdated:
				counters.Updated++
			}
		}

		if counters.Fetched%s.cfg.BatchSize == 0 {
			if err := ctx.Err(); err != nil {
				return crerr.Wrapf(err, "%s sync cancelled", kind)
			}
			if err := s.tracker.RecordProgress(ctx, runID, *counters); err != nil {
				s.logger.WarnContext(ctx, "record sync progress failed", "run_id", runID, "error", err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return crerr.Wrapf(err, "%s sync cancelled", kind)
	}
	return nil
}

func (s *SyncService) upsertRaw(ctx context.Context, kind string, raw map[string]any, runID int64) (UpsertOutcome, error) {
	switch kind {
	case KindPlayers:
		rec, err := normalize.NormalizePlayer(raw)
		if err != nil {
			return UpsertOutcome{}, err
		}
		return s.upserts.UpsertPlayer(ctx, rec, runID)
	case KindCompetitions:
		rec, err := normalize.NormalizeCompetition(raw)
		if err != nil {
			return UpsertOutcome{}, err
		}
		return s.upserts.UpsertCompetition(ctx, rec, runID)
	default:
		return UpsertOutcome{}, crerr.Newf("unknown entity kind %q", kind)
	}
}
