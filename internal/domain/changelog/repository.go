package changelog

import "context"

// Repository is the read side of the change log. Writes happen inside the
// entity stores' upsert transactions, never through this interface.
type Repository interface {
	// ListBySourceID returns entries for one entity ordered by creation.
	ListBySourceID(ctx context.Context, kind EntityKind, sourceID int64) ([]Entry, error)
}
