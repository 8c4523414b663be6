package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedState() domain.State {
	s := domain.NewState("quantum computing")
	s.SearchQueries = []string{"qubits", "gates"}
	s.SearchResults = []domain.SearchResult{{Content: "a"}, {Content: "b"}}
	s.KeyFindings = []string{"Qubits are fragile"}
	s.Summary = "Quantum summary."
	s.CurrentStep = "generate_summary"
	return s
}

func TestReportMarkdown(t *testing.T) {
	s := completedState()
	md := ReportMarkdown(&domain.Report{RequestID: "r-1", Result: domain.Project(s), State: s})

	assert.Contains(t, md, "# quantum computing")
	assert.Contains(t, md, "## Summary\n\nQuantum summary.")
	assert.Contains(t, md, "- Qubits are fragile")
	assert.Contains(t, md, "2. gates")
	assert.Contains(t, md, "`r-1` · 2 search results")
	assert.NotContains(t, md, "Run failed")
}

func TestReportMarkdown_Failed(t *testing.T) {
	s := domain.NewState("go")
	s.CurrentStep = "generate_queries"
	s.Error = "model down"
	md := ReportMarkdown(&domain.Report{RequestID: "r-2", Result: domain.Project(s), State: s})

	assert.Contains(t, md, "**Run failed** at `generate_queries`: model down")
	assert.Contains(t, md, "espalier runs resume r-2")
	assert.NotContains(t, md, "## Summary")
}

func TestSnapshotMarkdown(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	md := SnapshotMarkdown(domain.NewSnapshot("r-3", completedState(), at))

	assert.Contains(t, md, "**Status:** completed")
	assert.Contains(t, md, "2026-01-02T03:04:05Z")
	assert.Contains(t, md, "**Last step:** generate_summary")
}

func TestRenderer_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	assert.False(t, r.Styled())

	require.NoError(t, r.Print("# Title\n"))
	assert.Equal(t, "# Title\n", buf.String())
}
