package domain

import "time"

// Snapshot is the persisted envelope of a run's state.
type Snapshot struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    RunStatus `json:"status"`
	State     State     `json:"state"`

	// Sealed holds the encrypted State when a store encrypts at rest.
	// State is zero while Sealed is set.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSnapshot wraps a state for persistence. The status is derived from the
// state: a recorded error means failed, anything else is completed.
func NewSnapshot(requestID string, s State, at time.Time) Snapshot {
	status := StatusCompleted
	if s.Failed() {
		status = StatusFailed
	}
	return Snapshot{
		RequestID: requestID,
		Timestamp: at.UTC(),
		Status:    status,
		State:     s.Clone(),
	}
}

// Projection is the caller-facing view of a finished run. Raw search results
// and the progress marker are left out.
type Projection struct {
	Topic         string   `json:"topic"`
	SearchQueries []string `json:"search_queries"`
	NumResults    int      `json:"num_results"`
	KeyFindings   []string `json:"key_findings"`
	Summary       string   `json:"summary"`
}

// Project builds the Projection of a state.
func Project(s State) Projection {
	return Projection{
		Topic:         s.Topic,
		SearchQueries: cloneStrings(s.SearchQueries),
		NumResults:    len(s.SearchResults),
		KeyFindings:   cloneStrings(s.KeyFindings),
		Summary:       s.Summary,
	}
}

// Report is the outcome of a research run. It is returned even when the run
// failed so callers can inspect the partial state.
type Report struct {
	RequestID string     `json:"request_id"`
	Result    Projection `json:"result"`
	State     State      `json:"state"`
}

// Failed reports whether the run ended with an unrecoverable error.
func (r *Report) Failed() bool {
	return r != nil && r.State.Failed()
}
