package competition

import (
	"context"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
)

// Store describes competition persistence needs from the upsert engine.
// Update applies the row and its change-log entries atomically.
type Store interface {
	GetBySourceID(ctx context.Context, sourceID int64) (*Competition, error)
	Insert(ctx context.Context, rec Competition, syncRunID int64) error
	Update(ctx context.Context, rec Competition, changes []changelog.FieldChange, syncRunID int64) error
}
