package changelog

import "time"

// EntityKind names the table family a change belongs to.
type EntityKind string

const (
	KindPlayers      EntityKind = "players"
	KindCompetitions EntityKind = "competitions"
)

// FieldChange is one field delta produced by an upsert diff. Values are
// JSON-encoded so numeric, string, and blob fields share one representation.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// Entry is a persisted, append-only change record with provenance.
type Entry struct {
	ID        int64
	Kind      EntityKind
	SourceID  int64
	Field     string
	OldValue  string
	NewValue  string
	SyncRunID int64
	ChangedAt time.Time
}
