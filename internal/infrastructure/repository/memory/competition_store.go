package memory

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
	"github.com/ujpest-analytics/transferroom-sync/internal/domain/competition"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

type CompetitionStore struct {
	mu      sync.RWMutex
	records map[int64]competition.Competition
	log     *ChangeLog
	now     func() time.Time
}

func NewCompetitionStore(log *ChangeLog) *CompetitionStore {
	return &CompetitionStore{
		records: make(map[int64]competition.Competition),
		log:     log,
		now:     time.Now,
	}
}

func (s *CompetitionStore) GetBySourceID(_ context.Context, sourceID int64) (*competition.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[sourceID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *CompetitionStore) Insert(_ context.Context, rec competition.Competition, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.SourceID]; ok {
		return crerr.Mark(crerr.Newf("competition %d", rec.SourceID), usecase.ErrConflict)
	}
	s.records[rec.SourceID] = rec
	return nil
}

func (s *CompetitionStore) Update(_ context.Context, rec competition.Competition, changes []changelog.FieldChange, syncRunID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.SourceID]; !ok {
		return crerr.Newf("competition %d not found", rec.SourceID)
	}

	s.records[rec.SourceID] = rec
	s.log.append(changelog.KindCompetitions, rec.SourceID, changes, syncRunID, s.now())
	return nil
}

func (s *CompetitionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
