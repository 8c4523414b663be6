package runtime

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/workflow"
)

// Engine compiles workflow definitions into runnable programs.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger used for step progress and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used for events and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile resolves the edges of def into an ordered plan.
func (e *Engine) Compile(def *workflow.Definition) (*Program, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", workflow.ErrInvalidDefinition)
	}

	steps := make([]workflow.Step, 0, def.Len())
	index := make(map[string]int, def.Len())
	for current := def.Entry(); current != workflow.End; {
		if _, dup := index[current]; dup {
			return nil, fmt.Errorf("%w: cycle at step %q", workflow.ErrInvalidDefinition, current)
		}
		step, ok := def.Step(current)
		if !ok {
			return nil, fmt.Errorf("%w: unknown step %q", workflow.ErrInvalidDefinition, current)
		}
		index[current] = len(steps)
		steps = append(steps, step)

		next, ok := def.Next(current)
		if !ok {
			return nil, fmt.Errorf("%w: step %q has no outgoing edge", workflow.ErrInvalidDefinition, current)
		}
		current = next
	}

	return &Program{
		engine: e,
		name:   def.Name(),
		steps:  steps,
		index:  index,
	}, nil
}
