package postgres

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
	qb "github.com/ujpest-analytics/transferroom-sync/internal/platform/querybuilder"
)

const changeLogTable = "entity_change_log"

type changeLogRow struct {
	ID        int64     `db:"id"`
	Kind      string    `db:"entity_kind"`
	SourceID  int64     `db:"source_id"`
	Field     string    `db:"field_name"`
	OldValue  string    `db:"old_value"`
	NewValue  string    `db:"new_value"`
	SyncRunID int64     `db:"sync_run_id"`
	ChangedAt time.Time `db:"changed_at"`
}

var changeLogColumns = mustColumns(changeLogRow{})

// insertChangeLogTx appends one row per changed field inside the caller's
// transaction.
func insertChangeLogTx(ctx context.Context, tx *sqlx.Tx, kind changelog.EntityKind, sourceID int64, changes []changelog.FieldChange, syncRunID int64) error {
	if len(changes) == 0 {
		return nil
	}

	builder := qb.InsertInto(changeLogTable).
		Columns("entity_kind", "source_id", "field_name", "old_value", "new_value", "sync_run_id")
	for _, change := range changes {
		builder.Values(string(kind), sourceID, change.Field, change.OldValue, change.NewValue, syncRunID)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build insert change log query")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrap(err, "insert change log")
	}
	return nil
}

// ChangeLogRepository reads the append-only field change history.
type ChangeLogRepository struct {
	db *sqlx.DB
}

func NewChangeLogRepository(db *sqlx.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

func (r *ChangeLogRepository) ListBySourceID(ctx context.Context, kind changelog.EntityKind, sourceID int64) ([]changelog.Entry, error) {
	query, args, err := qb.Select(changeLogColumns...).From(changeLogTable).
		Where(
			qb.Eq("entity_kind", string(kind)),
			qb.Eq("source_id", sourceID),
		).
		OrderBy("changed_at", "id").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build select change log query")
	}

	var rows []changeLogRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "select change log")
	}

	out := make([]changelog.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, changelog.Entry{
			ID:        row.ID,
			Kind:      changelog.EntityKind(row.Kind),
			SourceID:  row.SourceID,
			Field:     row.Field,
			OldValue:  row.OldValue,
			NewValue:  row.NewValue,
			SyncRunID: row.SyncRunID,
			ChangedAt: row.ChangedAt,
		})
	}
	return out, nil
}
