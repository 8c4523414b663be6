package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Builder manages the construction of a Definition.
// Errors are collected and reported by Build.
type Builder struct {
	name  string
	entry string
	order []string
	steps map[string]Step
	edges map[string]string
	errs  []error
}

// NewBuilder creates a new workflow builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:  name,
		steps: make(map[string]Step),
		edges: make(map[string]string),
	}
}

// AddStep registers a step with the fields it is allowed to write.
func (b *Builder) AddStep(name string, writes domain.FieldSet, fn StepFunc) *Builder {
	switch {
	case strings.TrimSpace(name) == "" || name == End:
		b.fail("invalid step name %q", name)
		return b
	case fn == nil:
		b.fail("step %q has no body", name)
		return b
	}
	if _, ok := b.steps[name]; ok {
		b.fail("duplicate step %q", name)
		return b
	}
	b.steps[name] = Step{Name: name, Writes: writes, Run: fn}
	b.order = append(b.order, name)
	return b
}

// SetEntry marks the first step.
func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

// AddEdge declares the transition from one step to the next. A step has at
// most one outgoing edge; to may be End.
func (b *Builder) AddEdge(from, to string) *Builder {
	if prev, ok := b.edges[from]; ok {
		b.fail("step %q already continues to %q, cannot branch to %q", from, prev, to)
		return b
	}
	b.edges[from] = to
	return b
}

// Build validates the declaration and returns the Definition.
func (b *Builder) Build() (*Definition, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if len(b.steps) == 0 {
		return nil, b.invalid("no steps declared")
	}
	if b.entry == "" {
		return nil, b.invalid("entry step not set")
	}
	if _, ok := b.steps[b.entry]; !ok {
		return nil, b.invalid("entry step %q is not declared", b.entry)
	}

	for from, to := range b.edges {
		if _, ok := b.steps[from]; !ok {
			return nil, b.invalid("edge from undeclared step %q", from)
		}
		if _, ok := b.steps[to]; !ok && to != End {
			return nil, b.invalid("edge from %q to undeclared step %q", from, to)
		}
	}
	for _, name := range b.order {
		if _, ok := b.edges[name]; !ok {
			return nil, b.invalid("step %q has no outgoing edge", name)
		}
	}

	// Walk from the entry; a revisit is a cycle.
	path := make([]string, 0, len(b.steps))
	seen := make(map[string]bool, len(b.steps))
	for current := b.entry; current != End; current = b.edges[current] {
		if seen[current] {
			return nil, b.invalid("cycle detected at step %q", current)
		}
		seen[current] = true
		path = append(path, current)
	}

	if len(path) != len(b.steps) {
		var orphans []string
		for _, name := range b.order {
			if !seen[name] {
				orphans = append(orphans, name)
			}
		}
		return nil, b.invalid("steps not reachable from entry: %s", strings.Join(orphans, ", "))
	}

	name := b.name
	if name == "" {
		name = "workflow"
	}

	steps := make(map[string]Step, len(b.steps))
	for k, v := range b.steps {
		steps[k] = v
	}
	edges := make(map[string]string, len(b.edges))
	for k, v := range b.edges {
		edges[k] = v
	}

	return &Definition{
		name:  name,
		entry: b.entry,
		steps: steps,
		edges: edges,
		path:  path,
	}, nil
}

func (b *Builder) fail(format string, args ...any) {
	b.errs = append(b.errs, b.invalid(format, args...))
}

func (b *Builder) invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, fmt.Sprintf(format, args...))
}

// Sequence declares a linear chain: the first step is the entry and each
// step continues to the next, the last one to End.
func Sequence(name string, steps ...Step) (*Definition, error) {
	b := NewBuilder(name)
	for i, s := range steps {
		b.AddStep(s.Name, s.Writes, s.Run)
		if i == 0 {
			b.SetEntry(s.Name)
		}
		if i+1 < len(steps) {
			b.AddEdge(s.Name, steps[i+1].Name)
		} else {
			b.AddEdge(s.Name, End)
		}
	}
	return b.Build()
}
