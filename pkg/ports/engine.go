package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/workflow"
)

// Service is the driving port used by transport adapters (HTTP, MCP, CLI).
type Service interface {
	// Research runs the workflow for a topic under a fresh request ID.
	Research(ctx context.Context, topic string) (*domain.Report, error)

	// Resume continues a persisted run from its last completed step.
	Resume(ctx context.Context, requestID string, state domain.State) (*domain.Report, error)

	// Steps returns the workflow steps in execution order.
	Steps() []workflow.Step
}
