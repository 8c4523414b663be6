package domain

import (
	"reflect"
)

// StateDiff represents the changes a single merge made to a State.
// It is attached to step events and serialized for clients that follow a run.
type StateDiff struct {
	// Changed holds the fields whose value differs.
	Changed FieldSet `json:"-"`

	// Fields lists Changed by name for serialization.
	Fields []string `json:"fields"`

	// CurrentStep is set when the progress marker moved.
	CurrentStep *string `json:"current_step,omitempty"`

	// AppendedResults counts search results added at the tail.
	AppendedResults int `json:"appended_results,omitempty"`

	// Error is set when the error field changed.
	Error *string `json:"error,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// It returns nil when the two states are equal.
func Diff(oldState, newState State) *StateDiff {
	var changed FieldSet

	if oldState.Topic != newState.Topic {
		changed |= FieldSet(FieldTopic)
	}
	if !reflect.DeepEqual(oldState.SearchQueries, newState.SearchQueries) {
		changed |= FieldSet(FieldSearchQueries)
	}
	if !reflect.DeepEqual(oldState.SearchResults, newState.SearchResults) {
		changed |= FieldSet(FieldSearchResults)
	}
	if !reflect.DeepEqual(oldState.KeyFindings, newState.KeyFindings) {
		changed |= FieldSet(FieldKeyFindings)
	}
	if oldState.Summary != newState.Summary {
		changed |= FieldSet(FieldSummary)
	}
	if oldState.CurrentStep != newState.CurrentStep {
		changed |= FieldSet(FieldCurrentStep)
	}
	if oldState.Error != newState.Error {
		changed |= FieldSet(FieldError)
	}

	if changed.Empty() {
		return nil
	}

	diff := &StateDiff{
		Changed: changed,
		Fields:  changed.Names(),
	}
	if changed.Has(FieldCurrentStep) {
		step := newState.CurrentStep
		diff.CurrentStep = &step
	}
	if changed.Has(FieldError) {
		msg := newState.Error
		diff.Error = &msg
	}
	diff.AppendedResults = appended(oldState.SearchResults, newState.SearchResults)
	return diff
}

// appended assumes append-only growth of the results sequence.
// A rewrite (prefix mismatch) reports zero.
func appended(old, new []SearchResult) int {
	if len(new) <= len(old) {
		return 0
	}
	if len(old) > 0 && !reflect.DeepEqual(old, new[:len(old)]) {
		return 0
	}
	return len(new) - len(old)
}

// IsEmpty checks if the diff contains any change.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || d.Changed.Empty()
}
