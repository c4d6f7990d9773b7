package syncrun

import "time"

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Counters are the cumulative totals for one sync run. Fetched counts every
// record returned by the source; unchanged records are fetched but neither
// inserted, updated, nor failed, so fetched >= inserted + updated + failed.
type Counters struct {
	Fetched  int
	Inserted int
	Updated  int
	Failed   int
}

// Run is the audit record for one ingestion invocation of one entity kind.
// It is created in_progress and transitions to a terminal status exactly once.
type Run struct {
	ID              int64
	Kind            string
	Status          Status
	Counters        Counters
	ErrorMessage    string
	RecordErrors    []string
	StartedAt       time.Time
	CompletedAt     *time.Time
	DurationSeconds *int
}
