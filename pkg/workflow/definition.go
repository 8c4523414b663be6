package workflow

import (
	"errors"
	"slices"
)

// End is the terminal marker used as the target of the last edge.
const End = "__end__"

// ErrInvalidDefinition is returned by Build when the declared steps and
// edges do not form a single linear chain.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// Definition is an immutable, validated workflow.
type Definition struct {
	name  string
	entry string
	steps map[string]Step
	edges map[string]string
	path  []string
}

// Name returns the workflow name.
func (d *Definition) Name() string { return d.name }

// Entry returns the first step.
func (d *Definition) Entry() string { return d.entry }

// Next returns the step that follows name, or End.
func (d *Definition) Next(name string) (string, bool) {
	to, ok := d.edges[name]
	return to, ok
}

// Step looks a step up by name.
func (d *Definition) Step(name string) (Step, bool) {
	s, ok := d.steps[name]
	return s, ok
}

// Path returns the step names in execution order.
func (d *Definition) Path() []string {
	return slices.Clone(d.path)
}

// Steps returns the declared steps in execution order.
func (d *Definition) Steps() []Step {
	out := make([]Step, 0, len(d.path))
	for _, name := range d.path {
		out = append(out, d.steps[name])
	}
	return out
}

// Len returns the number of steps.
func (d *Definition) Len() int { return len(d.path) }
