package workflow

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// StepFunc is the body of a step. It receives a private copy of the current
// state and returns the fields it wants to change. A returned error is an
// unrecoverable failure of the run; expected conditions should be turned
// into degraded partials instead.
type StepFunc func(ctx context.Context, s domain.State) (domain.Partial, error)

// ImplicitWrites are the fields every step may write without declaring them.
const ImplicitWrites = domain.FieldSet(domain.FieldError | domain.FieldCurrentStep)

// Step is a named unit of work with its declared field ownership.
type Step struct {
	Name   string
	Writes domain.FieldSet
	Run    StepFunc
}

// Undeclared returns the fields of got the step is not allowed to write.
func (s Step) Undeclared(got domain.FieldSet) domain.FieldSet {
	return got.Minus(s.Writes.Union(ImplicitWrites))
}
