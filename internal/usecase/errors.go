package usecase

import "errors"

var (
	// ErrAuth means the source rejected our credentials.
	ErrAuth = errors.New("source authentication failed")

	// ErrSourceUnavailable means the source could not be reached or kept
	// failing transiently after retries were exhausted.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceRejected means the source refused a well-formed request for
	// a non-transient reason; retrying the same request will not help.
	ErrSourceRejected = errors.New("source rejected request")

	// ErrPersistence wraps storage failures surfaced by the upsert engine.
	ErrPersistence = errors.New("persistence failure")

	// ErrConflict means an insert raced a concurrent writer for the same
	// source id.
	ErrConflict = errors.New("record already exists")

	// ErrRunFinalized means a sync run already reached a terminal status.
	ErrRunFinalized = errors.New("sync run already finalized")
)
