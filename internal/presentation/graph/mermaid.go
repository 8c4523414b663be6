package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/workflow"
)

const (
	startID = "__start__"
	endID   = "__end__"
)

// Overlay contains run progress to visualize on the graph.
type Overlay struct {
	Completed []string
	Failed    string
}

// OverlayFromState marks every step up to state.CurrentStep as completed and,
// for a failed run, the step after it as failed.
func OverlayFromState(steps []workflow.Step, state domain.State) *Overlay {
	overlay := &Overlay{}
	done := state.CurrentStep == "" || state.CurrentStep == domain.InitialStep
	next := 0
	if !done {
		for i, s := range steps {
			overlay.Completed = append(overlay.Completed, s.Name)
			if s.Name == state.CurrentStep {
				next = i + 1
				break
			}
		}
	}
	if state.Failed() && next < len(steps) {
		overlay.Failed = steps[next].Name
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart of a linear workflow.
// It applies semantic styling:
// - Start/End: ((Circle))
// - Step: [Rectangle] annotated with the fields it writes
// It also applies overlay styles (Completed/Failed) if provided.
func GenerateMermaid(steps []workflow.Step, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((\"start\"))\n", startID))

	prev := startID
	for _, step := range steps {
		safeID := sanitizeMermaidID(step.Name)
		label := step.Name
		if names := step.Writes.Names(); len(names) > 0 {
			label = fmt.Sprintf("%s <br/> ✎ %s", step.Name, strings.Join(names, ", "))
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, label))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, safeID))
		prev = safeID
	}

	sb.WriteString(fmt.Sprintf("    %s((\"end\"))\n", endID))
	sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, endID))

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Completed {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s completed;\n", safeID))
			}
		}

		if overlay.Failed != "" {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(overlay.Failed)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
