package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Policies(t *testing.T) {
	for _, spec := range domain.Schema() {
		t.Run(spec.Name, func(t *testing.T) {
			if spec.Field == domain.FieldSearchResults {
				assert.Equal(t, domain.PolicyAppend, spec.Policy)
				return
			}
			assert.Equal(t, domain.PolicyOverwrite, spec.Policy)
		})
	}
	assert.Len(t, domain.Schema(), 7)
}

func TestNewState_Defaults(t *testing.T) {
	s := domain.NewState("quantum computing")

	assert.Equal(t, "quantum computing", s.Topic)
	assert.Equal(t, "init", s.CurrentStep)
	assert.Empty(t, s.SearchQueries)
	assert.Empty(t, s.SearchResults)
	assert.Empty(t, s.KeyFindings)
	assert.Empty(t, s.Summary)
	assert.Empty(t, s.Error)
	assert.NotNil(t, s.SearchQueries, "sequences start empty, not absent")
}

func TestMerge_EmptyPartialIsIdentity(t *testing.T) {
	s := domain.NewState("x")
	s.SearchQueries = []string{"q1"}
	s.SearchResults = []domain.SearchResult{{Content: "c"}}

	assert.Equal(t, s, domain.Merge(s, domain.Partial{}))
}

func TestMerge_Overwrite(t *testing.T) {
	s := domain.NewState("x")
	s.SearchQueries = []string{"q1"}

	next := domain.Merge(s, domain.Partial{}.WithSearchQueries([]string{"q2", "q3"}))
	assert.Equal(t, []string{"q2", "q3"}, next.SearchQueries)

	// An explicitly empty value is distinct from an absent one.
	cleared := domain.Merge(next, domain.Partial{}.WithKeyFindings(nil))
	assert.Equal(t, []string{}, cleared.KeyFindings)
	assert.Equal(t, []string{"q2", "q3"}, cleared.SearchQueries)
}

func TestMerge_AppendResults(t *testing.T) {
	a := []domain.SearchResult{{Content: "a1"}, {Content: "a2"}}
	b := []domain.SearchResult{{Content: "b1"}}

	s := domain.NewState("x")
	s = domain.Merge(s, domain.Partial{}.WithSearchResults(a))
	s = domain.Merge(s, domain.Partial{}.WithSearchResults(b))

	require.Len(t, s.SearchResults, 3)
	assert.Equal(t, "a1", s.SearchResults[0].Content)
	assert.Equal(t, "a2", s.SearchResults[1].Content)
	assert.Equal(t, "b1", s.SearchResults[2].Content)
}

func TestMerge_DoesNotAlias(t *testing.T) {
	base := domain.NewState("x")
	base.SearchQueries = []string{"q1"}
	base.SearchResults = []domain.SearchResult{{Content: "r1", Extra: map[string]any{"k": "v"}}}

	queries := []string{"q2"}
	p := domain.Partial{}.WithSearchQueries(queries).WithSearchResults([]domain.SearchResult{{Content: "r2"}})

	next := domain.Merge(base, p)
	next.SearchResults[0].Content = "mutated"
	next.SearchResults[0].Extra["k"] = "mutated"
	next.SearchQueries[0] = "mutated"
	queries[0] = "mutated-input"

	assert.Equal(t, "r1", base.SearchResults[0].Content)
	assert.Equal(t, "v", base.SearchResults[0].Extra["k"])
	assert.Equal(t, []string{"q1"}, base.SearchQueries)

	got, ok := p.SearchQueries()
	require.True(t, ok)
	assert.Equal(t, []string{"q2"}, got)
}

func TestPartial_Fields(t *testing.T) {
	p := domain.Partial{}
	assert.True(t, p.IsEmpty())

	p = p.WithSummary("").WithError("failed")
	assert.Equal(t, domain.Fields(domain.FieldSummary, domain.FieldError), p.Fields())

	summary, ok := p.Summary()
	assert.True(t, ok)
	assert.Empty(t, summary)

	_, ok = p.Topic()
	assert.False(t, ok)
	assert.Equal(t, "{summary,error}", p.Fields().String())
}

func TestFieldSet_Operations(t *testing.T) {
	declared := domain.Fields(domain.FieldSearchQueries)
	got := domain.Fields(domain.FieldSearchQueries, domain.FieldSummary)

	extra := got.Minus(declared)
	assert.Equal(t, []string{"summary"}, extra.Names())
	assert.True(t, got.Union(declared).Has(domain.FieldSummary))
	assert.True(t, domain.FieldSet(0).Empty())

	f, ok := domain.ParseField("search_results")
	require.True(t, ok)
	assert.Equal(t, domain.FieldSearchResults, f)
	assert.Equal(t, domain.PolicyAppend, f.Policy())
	_, ok = domain.ParseField("nope")
	assert.False(t, ok)
}

func TestProject(t *testing.T) {
	s := domain.NewState("quantum computing")
	s.SearchQueries = []string{"a", "b"}
	s.SearchResults = []domain.SearchResult{{Content: "1"}, {Content: "2"}, {Content: "3"}}
	s.KeyFindings = []string{"f"}
	s.Summary = "sum"
	s.CurrentStep = "generate_summary"

	p := domain.Project(s)
	assert.Equal(t, domain.Projection{
		Topic:         "quantum computing",
		SearchQueries: []string{"a", "b"},
		NumResults:    3,
		KeyFindings:   []string{"f"},
		Summary:       "sum",
	}, p)
}

func TestNewSnapshot_Status(t *testing.T) {
	s := domain.NewState("x")
	assert.Equal(t, domain.StatusCompleted, domain.NewSnapshot("id", s, time.Now()).Status)

	s.Error = "boom"
	snap := domain.NewSnapshot("id", s, time.Now())
	assert.Equal(t, domain.StatusFailed, snap.Status)
	assert.True(t, snap.Status.Terminal())
	assert.Equal(t, "id", snap.RequestID)
}
