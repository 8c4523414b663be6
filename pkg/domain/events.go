package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart     EventType = "run_start"
	EventRunComplete  EventType = "run_complete"
	EventStepStart    EventType = "step_start"
	EventStepComplete EventType = "step_complete"
)

// RunStatus is the lifecycle position of a run.
type RunStatus string

const (
	StatusNotStarted RunStatus = "not_started"
	StatusRunning    RunStatus = "running"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// RunEvent marks the start or the end of a workflow run.
type RunEvent struct {
	EventBase
	Workflow string        `json:"workflow"`
	Status   RunStatus     `json:"status"`
	Step     string        `json:"step,omitempty"` // last completed step
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	Workflow string        `json:"workflow"`
	Step     string        `json:"step"`
	Index    int           `json:"index"`
	Duration time.Duration `json:"duration,omitempty"`
	Diff     *StateDiff    `json:"diff,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Failed reports whether the step ended with an unrecoverable error.
func (e *StepEvent) Failed() bool {
	return e.Error != ""
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRunStart     func(context.Context, *RunEvent)
	OnRunComplete  func(context.Context, *RunEvent)
	OnStepStart    func(context.Context, *StepEvent)
	OnStepComplete func(context.Context, *StepEvent)
}

type runIDKey struct{}

// ContextWithRunID attaches a run identifier to ctx so events can carry it.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run identifier attached to ctx, if any.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
