package domain

import (
	"maps"
	"slices"
)

// SearchResult is a single hit returned by a search provider.
// Content is the only member downstream steps rely on.
type SearchResult struct {
	Title   string  `json:"title,omitempty" mapstructure:"title"`
	URL     string  `json:"url,omitempty" mapstructure:"url"`
	Content string  `json:"content" mapstructure:"content"`
	Score   float64 `json:"score,omitempty" mapstructure:"score"`

	// Extra keeps provider fields Espalier does not model.
	Extra map[string]any `json:"extra,omitempty" mapstructure:",remain"`
}

// State is the full snapshot of a research run.
// It is a value: copies must go through Clone to avoid sharing slices.
type State struct {
	Topic         string         `json:"topic"`
	SearchQueries []string       `json:"search_queries"`
	SearchResults []SearchResult `json:"search_results"`
	KeyFindings   []string       `json:"key_findings"`
	Summary       string         `json:"summary"`

	// CurrentStep names the most recently completed step. It is diagnostic
	// and used as the resume point; it never drives control flow.
	CurrentStep string `json:"current_step"`

	// Error is non-empty once the run hit an unrecoverable failure.
	Error string `json:"error"`
}

// NewState creates a clean state for a topic.
func NewState(topic string) State {
	return State{
		Topic:         topic,
		SearchQueries: []string{},
		SearchResults: []SearchResult{},
		KeyFindings:   []string{},
		CurrentStep:   InitialStep,
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.SearchQueries = slices.Clone(s.SearchQueries)
	out.KeyFindings = slices.Clone(s.KeyFindings)
	out.SearchResults = cloneResults(s.SearchResults)
	return out
}

// Failed reports whether the run recorded an unrecoverable error.
func (s State) Failed() bool {
	return s.Error != ""
}

func cloneResults(in []SearchResult) []SearchResult {
	if in == nil {
		return nil
	}
	out := make([]SearchResult, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// Clone copies the result, including its Extra map.
func (r SearchResult) Clone() SearchResult {
	r.Extra = maps.Clone(r.Extra)
	return r
}
