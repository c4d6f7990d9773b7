package postgres

import (
	"context"
	"database/sql"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	sonic "github.com/bytedance/sonic"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/syncrun"
	qb "github.com/ujpest-analytics/transferroom-sync/internal/platform/querybuilder"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

const syncRunsTable = "data_sync_runs"

type syncRunRow struct {
	ID              int64          `db:"id"`
	Kind            string         `db:"entity_kind"`
	Status          string         `db:"status"`
	RecordsFetched  int            `db:"records_fetched"`
	RecordsInserted int            `db:"records_inserted"`
	RecordsUpdated  int            `db:"records_updated"`
	RecordsFailed   int            `db:"records_failed"`
	ErrorMessage    sql.NullString `db:"error_message"`
	Metadata        sql.NullString `db:"metadata"`
	StartedAt       time.Time      `db:"started_at"`
	CompletedAt     sql.NullTime   `db:"completed_at"`
	DurationSeconds sql.NullInt64  `db:"duration_seconds"`
}

var syncRunColumns = mustColumns(syncRunRow{})

// runMetadata is the shape of the metadata JSONB blob.
type runMetadata struct {
	RecordErrors []string `json:"record_errors,omitempty"`
}

type SyncRunRepository struct {
	db *sqlx.DB
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, kind string, startedAt time.Time) (int64, error) {
	query, args, err := qb.InsertInto(syncRunsTable).
		Columns("entity_kind", "status", "started_at").
		Values(kind, string(syncrun.StatusInProgress), startedAt).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return 0, crerr.Wrap(err, "build insert sync run query")
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, crerr.Wrap(err, "insert sync run")
	}
	return id, nil
}

// AccumulateProgress raises counters with GREATEST so a stale write that
// lands late can never roll the stored totals back.
func (r *SyncRunRepository) AccumulateProgress(ctx context.Context, runID int64, c syncrun.Counters) error {
	query, args, err := qb.Update(syncRunsTable).
		SetExpr("records_fetched", "GREATEST(records_fetched, ?)", c.Fetched).
		SetExpr("records_inserted", "GREATEST(records_inserted, ?)", c.Inserted).
		SetExpr("records_updated", "GREATEST(records_updated, ?)", c.Updated).
		SetExpr("records_failed", "GREATEST(records_failed, ?)", c.Failed).
		Where(qb.Eq("id", runID)).
		ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build accumulate progress query")
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrap(err, "accumulate sync run progress")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return crerr.Newf("sync run %d not found", runID)
	}
	return nil
}

// Finalize is guarded by the in_progress status so a run reaches a terminal
// state exactly once; a second call reports the conflict.
func (r *SyncRunRepository) Finalize(ctx context.Context, runID int64, status syncrun.Status, c syncrun.Counters, errorMessage string, recordErrors []string, completedAt time.Time) error {
	metadata := sql.NullString{}
	if len(recordErrors) > 0 {
		encoded, err := sonic.Marshal(runMetadata{RecordErrors: recordErrors})
		if err != nil {
			return crerr.Wrap(err, "encode sync run metadata")
		}
		metadata = sql.NullString{String: string(encoded), Valid: true}
	}

	errMsg := sql.NullString{}
	if errorMessage != "" {
		errMsg = sql.NullString{String: errorMessage, Valid: true}
	}

	query, args, err := qb.Update(syncRunsTable).
		Set("status", string(status)).
		Set("records_fetched", c.Fetched).
		Set("records_inserted", c.Inserted).
		Set("records_updated", c.Updated).
		Set("records_failed", c.Failed).
		Set("error_message", errMsg).
		Set("metadata", metadata).
		Set("completed_at", completedAt).
		SetExpr("duration_seconds", "GREATEST(0, FLOOR(EXTRACT(EPOCH FROM (?::timestamptz - started_at))))::INT", completedAt).
		Where(
			qb.Eq("id", runID),
			qb.Eq("status", string(syncrun.StatusInProgress)),
		).
		ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build finalize sync run query")
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrap(err, "finalize sync run")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return crerr.Wrap(err, "finalize sync run rows affected")
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: either the run is unknown or already terminal.
	run, err := r.Get(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return crerr.Newf("sync run %d not found", runID)
	}
	return crerr.Mark(crerr.Newf("sync run %d is %s", runID, run.Status), usecase.ErrRunFinalized)
}

func (r *SyncRunRepository) Get(ctx context.Context, runID int64) (*syncrun.Run, error) {
	query, args, err := qb.Select(syncRunColumns...).From(syncRunsTable).
		Where(qb.Eq("id", runID)).
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build select sync run query")
	}

	var row syncRunRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, crerr.Wrap(err, "select sync run")
	}

	var recordErrors []string
	if row.Metadata.Valid && row.Metadata.String != "" {
		var meta runMetadata
		if err := sonic.Unmarshal([]byte(row.Metadata.String), &meta); err != nil {
			return nil, crerr.Wrap(err, "decode sync run metadata")
		}
		recordErrors = meta.RecordErrors
	}

	return &syncrun.Run{
		ID:     row.ID,
		Kind:   row.Kind,
		Status: syncrun.Status(row.Status),
		Counters: syncrun.Counters{
			Fetched:  row.RecordsFetched,
			Inserted: row.RecordsInserted,
			Updated:  row.RecordsUpdated,
			Failed:   row.RecordsFailed,
		},
		ErrorMessage:    row.ErrorMessage.String,
		RecordErrors:    recordErrors,
		StartedAt:       row.StartedAt,
		CompletedAt:     timePtr(row.CompletedAt),
		DurationSeconds: intPtr(row.DurationSeconds),
	}, nil
}
