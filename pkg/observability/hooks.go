package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/espalier/pkg/domain"
)

// LoggingHooks logs every lifecycle event at Info, failures at Error.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_start", "run_id", e.RunID, "workflow", e.Workflow)
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			attrs := []any{
				"run_id", e.RunID,
				"workflow", e.Workflow,
				"status", e.Status,
				"step", e.Step,
				"duration", e.Duration,
			}
			if e.Error != "" {
				logger.ErrorContext(ctx, "run_complete", append(attrs, "err", e.Error)...)
				return
			}
			logger.InfoContext(ctx, "run_complete", attrs...)
		},
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_start", "run_id", e.RunID, "step", e.Step, "index", e.Index)
		},
		OnStepComplete: func(ctx context.Context, e *domain.StepEvent) {
			if e.Failed() {
				logger.ErrorContext(ctx, "step_failed", "run_id", e.RunID, "step", e.Step, "err", e.Error)
				return
			}
			var changed []string
			if e.Diff != nil {
				changed = e.Diff.Fields
			}
			logger.InfoContext(ctx, "step_complete",
				"run_id", e.RunID,
				"step", e.Step,
				"duration", e.Duration,
				"changed", changed,
			)
		},
	}
}

// Combine fans every event out to all hook sets, in order. Nil callbacks are skipped.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			for _, h := range sets {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, e)
				}
			}
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			for _, h := range sets {
				if h.OnRunComplete != nil {
					h.OnRunComplete(ctx, e)
				}
			}
		},
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range sets {
				if h.OnStepStart != nil {
					h.OnStepStart(ctx, e)
				}
			}
		},
		OnStepComplete: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range sets {
				if h.OnStepComplete != nil {
					h.OnStepComplete(ctx, e)
				}
			}
		},
	}
}
