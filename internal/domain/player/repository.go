package player

import (
	"context"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
)

// Store describes player persistence needs from the upsert engine.
//
// Update must apply the row write and its change-log entries in one atomic
// unit; a reader never observes one without the other.
type Store interface {
	GetBySourceID(ctx context.Context, sourceID int64) (*Player, error)
	Insert(ctx context.Context, rec Player, syncRunID int64) error
	Update(ctx context.Context, rec Player, changes []changelog.FieldChange, syncRunID int64) error
}
