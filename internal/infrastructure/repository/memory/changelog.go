// Package memory holds in-memory repository implementations used by tests
// and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
)

// ChangeLog is an append-only in-memory change log shared by the entity
// stores of one fixture.
type ChangeLog struct {
	mu      sync.Mutex
	nextID  int64
	entries []changelog.Entry
}

func NewChangeLog() *ChangeLog {
	return &ChangeLog{nextID: 1}
}

func (l *ChangeLog) append(kind changelog.EntityKind, sourceID int64, changes []changelog.FieldChange, syncRunID int64, changedAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, change := range changes {
		l.entries = append(l.entries, changelog.Entry{
			ID:        l.nextID,
			Kind:      kind,
			SourceID:  sourceID,
			Field:     change.Field,
			OldValue:  change.OldValue,
			NewValue:  change.NewValue,
			SyncRunID: syncRunID,
			ChangedAt: changedAt,
		})
		l.nextID++
	}
}

func (l *ChangeLog) ListBySourceID(_ context.Context, kind changelog.EntityKind, sourceID int64) ([]changelog.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []changelog.Entry
	for _, entry := range l.entries {
		if entry.Kind == kind && entry.SourceID == sourceID {
			out = append(out, entry)
		}
	}
	return out, nil
}
