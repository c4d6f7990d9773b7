package postgres

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
	"github.com/ujpest-analytics/transferroom-sync/internal/domain/player"
	qb "github.com/ujpest-analytics/transferroom-sync/internal/platform/querybuilder"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

const playersTable = "transferroom_players"

var playerColumns = mustColumns(playerRow{})

type PlayerStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db, now: time.Now}
}

func (s *PlayerStore) GetBySourceID(ctx context.Context, sourceID int64) (*player.Player, error) {
	query, args, err := qb.Select(playerColumns...).From(playersTable).
		Where(qb.Eq("source_id", sourceID)).
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build select player query")
	}

	var row playerRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, crerr.Wrap(err, "select player")
	}

	rec, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PlayerStore) Insert(ctx context.Context, rec player.Player, _ int64) error {
	row, err := newPlayerRow(rec, s.now().UTC())
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel(playersTable, row, "")
	if err != nil {
		return crerr.Wrap(err, "build insert player query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return crerr.Mark(crerr.Wrap(err, "insert player"), usecase.ErrConflict)
		}
		return crerr.Wrap(err, "insert player")
	}
	return nil
}

// Update writes the row and its change-log entries in one transaction, so a
// failure leaves stored state and audit trail consistent.
func (s *PlayerStore) Update(ctx context.Context, rec player.Player, changes []changelog.FieldChange, syncRunID int64) error {
	row, err := newPlayerRow(rec, s.now().UTC())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return crerr.Wrap(err, "begin tx update player")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.UpdateModel(playersTable, row, qb.Eq("source_id", rec.SourceID))
	if err != nil {
		return crerr.Wrap(err, "build update player query")
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrap(err, "update player")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return crerr.Newf("player %d not found for update", rec.SourceID)
	}

	if err := insertChangeLogTx(ctx, tx, changelog.KindPlayers, rec.SourceID, changes, syncRunID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return crerr.Wrap(err, "commit update player")
	}
	return nil
}
