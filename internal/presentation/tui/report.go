package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// ReportMarkdown formats a research report for reading.
func ReportMarkdown(r *domain.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Result.Topic)

	if r.Failed() {
		fmt.Fprintf(&b, "> **Run failed** at `%s`: %s\n>\n", r.State.CurrentStep, r.State.Error)
		fmt.Fprintf(&b, "> Resume with `espalier runs resume %s`\n\n", r.RequestID)
	}

	if r.Result.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(r.Result.Summary)
		b.WriteString("\n\n")
	}

	if len(r.Result.KeyFindings) > 0 {
		b.WriteString("## Key findings\n\n")
		for _, f := range r.Result.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if len(r.Result.SearchQueries) > 0 {
		b.WriteString("## Queries\n\n")
		for i, q := range r.Result.SearchQueries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n\n`%s` · %d search results\n", r.RequestID, r.Result.NumResults)
	return b.String()
}

// SnapshotMarkdown formats a stored run for `runs inspect`.
func SnapshotMarkdown(s domain.Snapshot) string {
	report := &domain.Report{
		RequestID: s.RequestID,
		Result:    domain.Project(s.State),
		State:     s.State,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Status:** %s  \n**Saved:** %s  \n**Last step:** %s\n\n",
		s.Status, s.Timestamp.Format(time.RFC3339), orNone(s.State.CurrentStep))
	b.WriteString(ReportMarkdown(report))
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
