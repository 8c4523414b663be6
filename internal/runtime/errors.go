package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

var (
	// ErrUndeclaredFields is returned when a step writes fields it does not own.
	ErrUndeclaredFields = errors.New("step wrote undeclared fields")

	// ErrStepReportedError is returned when a step records an error in its update.
	ErrStepReportedError = errors.New("step reported an error")

	// ErrStepPanic is returned when a step body panics.
	ErrStepPanic = errors.New("step panicked")

	// ErrUnknownStep is returned when resuming from a step the program does not contain.
	ErrUnknownStep = errors.New("unknown step")
)

// ExecutionError describes the failure of a run.
type ExecutionError struct {
	Workflow string
	Step     string
	Status   domain.RunStatus
	// Path lists the steps completed during this run before the failure.
	Path []string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("workflow %q failed at step %q (after [%s]): %v",
		e.Workflow, e.Step, strings.Join(e.Path, " -> "), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// stateMessage is the text recorded in State.Error.
func (e *ExecutionError) stateMessage() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}
