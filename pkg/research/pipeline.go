package research

import (
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/workflow"
)

// WorkflowName identifies the research pipeline in events, logs and metrics.
const WorkflowName = "research"

// Definition declares the fixed research pipeline and the fields each step owns.
func (s *Steps) Definition() (*workflow.Definition, error) {
	return workflow.Sequence(WorkflowName,
		workflow.Step{Name: StepGenerateQueries, Writes: domain.Fields(domain.FieldSearchQueries), Run: s.GenerateQueries},
		workflow.Step{Name: StepSearchWeb, Writes: domain.Fields(domain.FieldSearchResults), Run: s.SearchWeb},
		workflow.Step{Name: StepExtractFindings, Writes: domain.Fields(domain.FieldKeyFindings), Run: s.ExtractFindings},
		workflow.Step{Name: StepGenerateSummary, Writes: domain.Fields(domain.FieldSummary), Run: s.GenerateSummary},
	)
}
