package domain

// InitialStep is the current_step marker of a run that has not completed any step.
const InitialStep = "init"

// Snapshot storage conventions.
const (
	// KeyRequestID is the JSON field name of the run identifier in a Snapshot.
	KeyRequestID = "request_id"

	// SnapshotKeyPrefix is the object prefix used by blob stores.
	SnapshotKeyPrefix = "states/"
)
