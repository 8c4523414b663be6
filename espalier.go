package espalier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/research"
	"github.com/aretw0/espalier/pkg/workflow"
	"github.com/google/uuid"
)

// Researcher is the high-level entry point for the Espalier library.
// It wires the research steps into the workflow engine and exposes a
// single call per research request.
type Researcher struct {
	program  *runtime.Program
	recorder ports.Recorder
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	pipeline research.Config
	newID    func() string
	now      func() time.Time
}

// Option defines a functional option for configuring the Researcher.
type Option func(*Researcher)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Researcher) {
		r.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Researcher) {
		r.logger = logger
	}
}

// WithRecorder sets where final snapshots are sent after each run.
func WithRecorder(rec ports.Recorder) Option {
	return func(r *Researcher) {
		r.recorder = rec
	}
}

// WithPipelineConfig tunes the research steps.
func WithPipelineConfig(cfg research.Config) Option {
	return func(r *Researcher) {
		r.pipeline = cfg
	}
}

// WithIDGenerator overrides request ID generation (default: random UUID).
func WithIDGenerator(fn func() string) Option {
	return func(r *Researcher) {
		r.newID = fn
	}
}

// WithClock overrides the time source used for snapshots.
func WithClock(now func() time.Time) Option {
	return func(r *Researcher) {
		r.now = now
	}
}

// New initializes a Researcher from its two collaborators.
func New(model ports.LanguageModel, searcher ports.Searcher, opts ...Option) (*Researcher, error) {
	if model == nil || searcher == nil {
		return nil, fmt.Errorf("language model and searcher are required: %w", ports.ErrNotConfigured)
	}

	r := &Researcher{
		pipeline: research.DefaultConfig(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	steps := research.New(model, searcher,
		research.WithLogger(r.logger),
		research.WithConfig(r.pipeline),
	)
	def, err := steps.Definition()
	if err != nil {
		return nil, fmt.Errorf("failed to declare research workflow: %w", err)
	}

	engine := runtime.NewEngine(
		runtime.WithLogger(r.logger),
		runtime.WithLifecycleHooks(r.hooks),
	)
	r.program, err = engine.Compile(def)
	if err != nil {
		return nil, fmt.Errorf("failed to compile research workflow: %w", err)
	}

	return r, nil
}

// Research runs the workflow for topic under a newly generated request ID.
func (r *Researcher) Research(ctx context.Context, topic string) (*domain.Report, error) {
	return r.Execute(ctx, r.newID(), topic)
}

// Execute runs the workflow for topic under the given request ID.
// The returned report is never nil; the error is non-nil when the run failed,
// in which case the report holds the state accumulated before the failure.
func (r *Researcher) Execute(ctx context.Context, requestID, topic string) (*domain.Report, error) {
	ctx = domain.ContextWithRunID(ctx, requestID)
	r.logger.Info("research started", "request_id", requestID, "topic", topic)

	final, err := r.program.Run(ctx, domain.NewState(topic))
	return r.finish(ctx, requestID, final, err)
}

// Resume continues a persisted run from the step after its current_step.
func (r *Researcher) Resume(ctx context.Context, requestID string, state domain.State) (*domain.Report, error) {
	ctx = domain.ContextWithRunID(ctx, requestID)
	r.logger.Info("research resumed", "request_id", requestID, "from", state.CurrentStep)

	final, err := r.program.Resume(ctx, state)
	return r.finish(ctx, requestID, final, err)
}

// Steps returns the workflow steps in execution order.
func (r *Researcher) Steps() []workflow.Step {
	return r.program.Steps()
}

func (r *Researcher) finish(ctx context.Context, requestID string, final domain.State, err error) (*domain.Report, error) {
	if r.recorder != nil {
		r.recorder.Record(ctx, domain.NewSnapshot(requestID, final, r.now()))
	}

	report := &domain.Report{
		RequestID: requestID,
		Result:    domain.Project(final),
		State:     final,
	}
	if err != nil {
		r.logger.Error("research failed", "request_id", requestID, "step", final.CurrentStep, "err", err)
		return report, err
	}

	r.logger.Info("research completed", "request_id", requestID,
		"queries", len(final.SearchQueries), "results", len(final.SearchResults))
	return report, nil
}
