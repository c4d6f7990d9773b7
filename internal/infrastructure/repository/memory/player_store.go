package memory

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
	"github.com/ujpest-analytics/transferroom-sync/internal/domain/player"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

// PlayerStore is the in-memory player store. BeforeChangeLog, when set, runs
// between accepting an update and committing it, letting tests inject a
// mid-write failure to probe atomicity.
type PlayerStore struct {
	mu      sync.RWMutex
	records map[int64]player.Player
	log     *ChangeLog
	now     func() time.Time

	BeforeChangeLog func() error
}

func NewPlayerStore(log *ChangeLog) *PlayerStore {
	return &PlayerStore{
		records: make(map[int64]player.Player),
		log:     log,
		now:     time.Now,
	}
}

func (s *PlayerStore) GetBySourceID(_ context.Context, sourceID int64) (*player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[sourceID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *PlayerStore) Insert(_ context.Context, rec player.Player, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.SourceID]; ok {
		return crerr.Mark(crerr.Newf("player %d", rec.SourceID), usecase.ErrConflict)
	}
	s.records[rec.SourceID] = rec
	return nil
}

func (s *PlayerStore) Update(_ context.Context, rec player.Player, changes []changelog.FieldChange, syncRunID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.SourceID]; !ok {
		return crerr.Newf("player %d not found", rec.SourceID)
	}
	if s.BeforeChangeLog != nil {
		if err := s.BeforeChangeLog(); err != nil {
			return err
		}
	}

	s.records[rec.SourceID] = rec
	s.log.append(changelog.KindPlayers, rec.SourceID, changes, syncRunID, s.now())
	return nil
}

// Len reports how many players are stored.
func (s *PlayerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
