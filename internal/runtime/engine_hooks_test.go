package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	var events []string
	var runs []*domain.RunEvent
	var diffs []*domain.StateDiff

	hooks := domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			events = append(events, "run:"+string(e.Status))
			runs = append(runs, e)
		},
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			events = append(events, "enter:"+e.Step)
		},
		OnStepComplete: func(ctx context.Context, e *domain.StepEvent) {
			events = append(events, "leave:"+e.Step)
			diffs = append(diffs, e.Diff)
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			events = append(events, "done:"+string(e.Status))
			runs = append(runs, e)
		},
	}

	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	def, err := workflow.Sequence("hooks",
		workflow.Step{
			Name:   "first",
			Writes: domain.Fields(domain.FieldSearchQueries),
			Run: func(ctx context.Context, s domain.State) (domain.Partial, error) {
				return domain.Partial{}.WithSearchQueries([]string{"q"}), nil
			},
		},
		workflow.Step{
			Name: "second",
			Run: func(ctx context.Context, s domain.State) (domain.Partial, error) {
				return domain.Partial{}, errors.New("nope")
			},
		},
	)
	require.NoError(t, err)

	prog, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks), runtime.WithClock(clock)).Compile(def)
	require.NoError(t, err)

	ctx := domain.ContextWithRunID(context.Background(), "run-42")
	_, err = prog.Run(ctx, domain.NewState("go"))
	require.Error(t, err)

	assert.Equal(t, []string{
		"run:running",
		"enter:first", "leave:first",
		"enter:second", "leave:second",
		"done:failed",
	}, events)

	require.Len(t, diffs, 2)
	require.NotNil(t, diffs[0])
	assert.Equal(t, []string{"search_queries", "current_step"}, diffs[0].Fields)
	assert.Nil(t, diffs[1], "failed steps carry no diff")

	require.Len(t, runs, 2)
	assert.Equal(t, "run-42", runs[1].RunID)
	assert.Equal(t, "first", runs[1].Step)
	assert.Positive(t, runs[1].Duration)
	assert.Contains(t, runs[1].Error, "nope")
}
