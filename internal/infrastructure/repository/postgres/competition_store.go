package postgres

import (
	"context"
	"database/sql"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
	"github.com/ujpest-analytics/transferroom-sync/internal/domain/competition"
	qb "github.com/ujpest-analytics/transferroom-sync/internal/platform/querybuilder"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

const competitionsTable = "transferroom_competitions"

type competitionRow struct {
	SourceID int64 `db:"source_id"`

	Name            string          `db:"competition_name"`
	CountrySourceID sql.NullInt64   `db:"country_id"`
	CountryName     sql.NullString  `db:"country_name"`
	DivisionLevel   sql.NullInt64   `db:"division_level"`
	TeamsData       sql.NullString  `db:"teams_data"`
	AvgTeamRating   sql.NullFloat64 `db:"avg_team_rating"`
	AvgStarter      sql.NullFloat64 `db:"avg_starter_rating"`

	IsActive     bool      `db:"is_active"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastSyncedAt time.Time `db:"last_synced_at"`
}

var competitionColumns = mustColumns(competitionRow{})

func newCompetitionRow(rec competition.Competition, now time.Time) competitionRow {
	return competitionRow{
		SourceID:        rec.SourceID,
		Name:            rec.Name,
		CountrySourceID: nullInt64(rec.CountrySourceID),
		CountryName:     nullString(rec.CountryName),
		DivisionLevel:   nullInt(rec.DivisionLevel),
		TeamsData:       nullString(rec.TeamsData),
		AvgTeamRating:   nullFloat(rec.AvgTeamRating),
		AvgStarter:      nullFloat(rec.AvgStarterRating),
		IsActive:        rec.IsActive,
		UpdatedAt:       now,
		LastSyncedAt:    now,
	}
}

func (r competitionRow) toDomain() competition.Competition {
	return competition.Competition{
		SourceID:         r.SourceID,
		Name:             r.Name,
		CountrySourceID:  int64Ptr(r.CountrySourceID),
		CountryName:      stringPtr(r.CountryName),
		DivisionLevel:    intPtr(r.DivisionLevel),
		TeamsData:        stringPtr(r.TeamsData),
		AvgTeamRating:    floatPtr(r.AvgTeamRating),
		AvgStarterRating: floatPtr(r.AvgStarter),
		IsActive:         r.IsActive,
	}
}

type CompetitionStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewCompetitionStore(db *sqlx.DB) *CompetitionStore {
	return &CompetitionStore{db: db, now: time.Now}
}

func (s *CompetitionStore) GetBySourceID(ctx context.Context, sourceID int64) (*competition.Competition, error) {
	query, args, err := qb.Select(competitionColumns...).From(competitionsTable).
		Where(qb.Eq("source_id", sourceID)).
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build select competition query")
	}

	var row competitionRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, crerr.Wrap(err, "select competition")
	}

	rec := row.toDomain()
	return &rec, nil
}

func (s *CompetitionStore) Insert(ctx context.Context, rec competition.Competition, _ int64) error {
	query, args, err := qb.InsertModel(competitionsTable, newCompetitionRow(rec, s.now().UTC()), "")
	if err != nil {
		return crerr.Wrap(err, "build insert competition query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return crerr.Mark(crerr.Wrap(err, "insert competition"), usecase.ErrConflict)
		}
		return crerr.Wrap(err, "insert competition")
	}
	return nil
}

func (s *CompetitionStore) Update(ctx context.Context, rec competition.Competition, changes []changelog.FieldChange, syncRunID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return crerr.Wrap(err, "begin tx update competition")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.UpdateModel(competitionsTable, newCompetitionRow(rec, s.now().UTC()), qb.Eq("source_id", rec.SourceID))
	if err != nil {
		return crerr.Wrap(err, "build update competition query")
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrap(err, "update competition")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return crerr.Newf("competition %d not found for update", rec.SourceID)
	}

	if err := insertChangeLogTx(ctx, tx, changelog.KindCompetitions, rec.SourceID, changes, syncRunID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return crerr.Wrap(err, "commit update competition")
	}
	return nil
}
