package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/workflow"
)

// Program is a compiled workflow: an ordered list of steps.
type Program struct {
	engine *Engine
	name   string
	steps  []workflow.Step
	index  map[string]int
}

// Name returns the workflow name.
func (p *Program) Name() string { return p.name }

// Steps returns the steps in execution order.
func (p *Program) Steps() []workflow.Step { return slices.Clone(p.steps) }

// Run executes every step from the entry, starting from initial.
//
// Each step receives a copy of the current state; its partial update is
// checked against the fields it declared, merged, and current_step is set
// to the step name. On failure the returned state is the one accumulated
// before the failing step, with Error set, and the error is an
// *ExecutionError.
func (p *Program) Run(ctx context.Context, initial domain.State) (domain.State, error) {
	return p.run(ctx, initial, 0)
}

// Resume continues a run from the step after state.CurrentStep. A previous
// error is cleared before the first resumed step. Resuming a completed run
// returns it unchanged.
func (p *Program) Resume(ctx context.Context, state domain.State) (domain.State, error) {
	start, err := p.resumeIndex(state.CurrentStep)
	if err != nil {
		return state, err
	}
	if start >= len(p.steps) {
		return state, nil
	}
	if state.Failed() {
		state = domain.Merge(state, domain.Partial{}.WithError(""))
	}
	return p.run(ctx, state, start)
}

func (p *Program) resumeIndex(current string) (int, error) {
	if current == "" || current == domain.InitialStep {
		return 0, nil
	}
	i, ok := p.index[current]
	if !ok {
		return 0, fmt.Errorf("%w: %q in workflow %q", ErrUnknownStep, current, p.name)
	}
	return i + 1, nil
}

func (p *Program) run(ctx context.Context, state domain.State, start int) (domain.State, error) {
	e := p.engine
	runID := domain.RunIDFromContext(ctx)
	begin := e.now()
	logger := e.logger.With(slog.String("workflow", p.name))
	if runID != "" {
		logger = logger.With(slog.String("run_id", runID))
	}

	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: begin, Type: domain.EventRunStart, RunID: runID},
			Workflow:  p.name,
			Status:    domain.StatusRunning,
			Step:      state.CurrentStep,
		})
	}

	var path []string
	for i := start; i < len(p.steps); i++ {
		step := p.steps[i]

		next, err := p.execute(ctx, logger, runID, i, step, state)
		if err != nil {
			execErr := &ExecutionError{
				Workflow: p.name,
				Step:     step.Name,
				Status:   domain.StatusFailed,
				Path:     path,
				Err:      err,
			}
			state = domain.Merge(state, domain.Partial{}.WithError(execErr.stateMessage()))
			logger.Error("workflow failed", "step", step.Name, "err", err)
			p.complete(ctx, runID, begin, state, domain.StatusFailed)
			return state, execErr
		}

		state = next
		path = append(path, step.Name)
	}

	p.complete(ctx, runID, begin, state, domain.StatusCompleted)
	return state, nil
}

// execute runs a single step and returns the merged state.
func (p *Program) execute(ctx context.Context, logger *slog.Logger, runID string, i int, step workflow.Step, state domain.State) (domain.State, error) {
	e := p.engine
	started := e.now()

	event := &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: started, Type: domain.EventStepStart, RunID: runID},
		Workflow:  p.name,
		Step:      step.Name,
		Index:     i,
	}
	if e.hooks.OnStepStart != nil {
		e.hooks.OnStepStart(ctx, event)
	}

	next, err := p.apply(ctx, step, state)

	done := *event
	done.Type = domain.EventStepComplete
	done.Timestamp = e.now()
	done.Duration = done.Timestamp.Sub(started)
	if err != nil {
		done.Error = err.Error()
	} else {
		done.Diff = domain.Diff(state, next)
	}
	if e.hooks.OnStepComplete != nil {
		e.hooks.OnStepComplete(ctx, &done)
	}

	if err == nil {
		logger.Debug("step completed", "step", step.Name, "duration", done.Duration)
	}
	return next, err
}

func (p *Program) apply(ctx context.Context, step workflow.Step, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, fmt.Errorf("run cancelled before step: %w", err)
	}

	update, err := invoke(ctx, step, state.Clone())
	if err != nil {
		return state, err
	}

	if extra := step.Undeclared(update.Fields()); !extra.Empty() {
		return state, fmt.Errorf("%w: %s", ErrUndeclaredFields, extra)
	}
	if msg, ok := update.ErrorMessage(); ok && msg != "" {
		return state, fmt.Errorf("%w: %s", ErrStepReportedError, msg)
	}

	next := domain.Merge(state, update)
	return domain.Merge(next, domain.Partial{}.WithCurrentStep(step.Name)), nil
}

// invoke calls the step body, turning a panic into an error.
func invoke(ctx context.Context, step workflow.Step, state domain.State) (update domain.Partial, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
	}()
	return step.Run(ctx, state)
}

func (p *Program) complete(ctx context.Context, runID string, begin time.Time, state domain.State, status domain.RunStatus) {
	if p.engine.hooks.OnRunComplete == nil {
		return
	}
	now := p.engine.now()
	p.engine.hooks.OnRunComplete(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: now, Type: domain.EventRunComplete, RunID: runID},
		Workflow:  p.name,
		Status:    status,
		Step:      state.CurrentStep,
		Duration:  now.Sub(begin),
		Error:     state.Error,
	})
}
