package usecase

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
	"github.com/ujpest-analytics/transferroom-sync/internal/domain/competition"
	"github.com/ujpest-analytics/transferroom-sync/internal/domain/player"
	"github.com/ujpest-analytics/transferroom-sync/internal/platform/logging"
)

type UpsertResult string

const (
	ResultInserted  UpsertResult = "inserted"
	ResultUpdated   UpsertResult = "updated"
	ResultUnchanged UpsertResult = "unchanged"
)

// UpsertOutcome reports what one reconciliation did. ChangedFields is only
// populated for updates.
type UpsertOutcome struct {
	Result        UpsertResult
	ChangedFields []changelog.FieldChange
}

// UpsertService reconciles canonical records against stored state. New source
// ids are inserted, known ids are diffed field by field and updated only when
// something actually changed, and every changed field leaves a change-log
// entry written in the same transaction as the row.
type UpsertService struct {
	players      player.Store
	competitions competition.Store
	logger       *logging.Logger
}

func NewUpsertService(players player.Store, competitions competition.Store, logger *logging.Logger) *UpsertService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UpsertService{
		players:      players,
		competitions: competitions,
		logger:       logger,
	}
}

func (s *UpsertService) UpsertPlayer(ctx context.Context, rec player.Player, syncRunID int64) (UpsertOutcome, error) {
	if err := rec.Validate(); err != nil {
		return UpsertOutcome{}, err
	}

	existing, err := s.players.GetBySourceID(ctx, rec.SourceID)
	if err != nil {
		return UpsertOutcome{}, crerr.Wrapf(crerr.Mark(err, ErrPersistence), "load player %d", rec.SourceID)
	}

	if existing == nil {
		err := s.players.Insert(ctx, rec, syncRunID)
		if err == nil {
			return UpsertOutcome{Result: ResultInserted}, nil
		}
		if !crerr.Is(err, ErrConflict) {
			return UpsertOutcome{}, crerr.Wrapf(crerr.Mark(err, ErrPersistence), "insert player %d", rec.SourceID)
		}

		// Lost an insert race; the row exists now, so reconcile against it.
		existing, err = s.players.GetBySourceID(ctx, rec.SourceID)
		if err != nil {
			return UpsertOutcome{}, crerr.Wrapf(crerr.Mark(err, ErrPersistence), "reload player %d after conflict", rec.SourceID)
		}
		if existing == nil {
			return UpsertOutcome{}, crerr.Wrapf(ErrPersistence, "player %d conflicted on insert but is absent", rec.SourceID)
		}
	}

	changes, err := diffTracked(*existing, rec)
	if err != nil {
		return UpsertOutcome{}, crerr.Wrapf(err, "diff player %d", rec.SourceID)
	}
	if len(changes) == 0 {
		return UpsertOutcome{Result: ResultUnchanged}, nil
	}

	if err := s.players.Update(ctx, rec, changes, syncRunID); err != nil {
		return UpsertOutcome{}, crerr.Wrapf(crerr.Mark(err, ErrPersistence), "update player %d", rec.SourceID)
	}

	s.logger.DebugContext(ctx, "player updated", "source_id", rec.SourceID, "changed_fields", len(changes))
	return UpsertOutcome{Result: ResultUpdated, ChangedFields: changes}, nil
}

func (s *UpsertService) UpsertCompetition(ctx context.Context, rec competition.Competition, syncRunID int64) (UpsertOutcome, error) {
	if err := rec.Validate(); err != nil {
		return UpsertOutcome{}, err
	}

	existing, err := s.competitions.GetBySourceID(ctx, rec.SourceID)
	if err != nil {
		return UpsertOutcome{}, crerr.Wrapf(crerr.Mark(err, ErrPersistence), "load competition %d", rec.SourceID)
	}

	if existing == nil {
		err := s.competitions.Insert(ctx, rec, syncRunID)
		if err == nil {
			return UpsertOutcome{Result: ResultInserted}, nil
		}
		if !crerr.Is(err, ErrConflict) {
			return UpsertOutcome{}, crerr.Wrapf(crerr.Mark(err, ErrPersistence), "insert competition %d", rec.SourceID)
		}

		existing, err = s.competitions.GetBySourceID(ctx, rec.SourceID)
		if err != nil {
			return UpsertOutcome{}, crerr.Wrapf(crerr.Mark(err, ErrPersistence), "reload competition %d after conflict", rec.SourceID)
		}
		if existing == nil {
			return UpsertOutcome{}, crerr.Wrapf(ErrPersistence, "competition %d conflicted on insert but is absent", rec.SourceID)
		}
	}

	changes, err := diffTracked(*existing, rec)
	if err != nil {
		return UpsertOutcome{}, crerr.Wrapf(err, "diff competition %d", rec.SourceID)
	}
	if len(changes) == 0 {
		return UpsertOutcome{Result: ResultUnchanged}, nil
	}

	if err := s.competitions.Update(ctx, rec, changes, syncRunID); err != nil {
		return UpsertOutcome{}, crerr.Wrapf(crerr.Mark(err, ErrPersistence), "update competition %d", rec.SourceID)
	}

	s.logger.DebugContext(ctx, "competition updated", "source_id", rec.SourceID, "changed_fields", len(changes))
	return UpsertOutcome{Result: ResultUpdated, ChangedFields: changes}, nil
}
