// Package fakes provides in-process collaborators for tests.
package fakes

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// Call is a recorded LanguageModel invocation.
type Call struct {
	System string
	User   string
}

// Model is a scripted LanguageModel. Responses are matched by a substring of
// the system prompt; the first match wins.
type Model struct {
	mu        sync.Mutex
	responses []response
	calls     []Call
}

type response struct {
	match string
	text  string
	err   error
}

// NewModel creates an empty scripted model.
func NewModel() *Model {
	return &Model{}
}

// On registers a reply for system prompts containing match.
func (m *Model) On(match, text string) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response{match: match, text: text})
	return m
}

// Fail registers an error for system prompts containing match.
func (m *Model) Fail(match string, err error) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response{match: match, err: err})
	return m
}

// Reset drops every scripted reply. Recorded calls are kept.
func (m *Model) Reset() *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	return m
}

// Complete implements ports.LanguageModel.
func (m *Model) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{System: system, User: user})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range m.responses {
		if strings.Contains(system, r.match) {
			return r.text, r.err
		}
	}
	return "", nil
}

// Calls returns the recorded invocations.
func (m *Model) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Searcher is a Searcher backed by a map of query to results.
type Searcher struct {
	mu      sync.Mutex
	Results map[string][]domain.SearchResult
	Errors  map[string]error
	Delay   map[string]time.Duration
	queries []string
}

// NewSearcher creates an empty searcher.
func NewSearcher() *Searcher {
	return &Searcher{
		Results: make(map[string][]domain.SearchResult),
		Errors:  make(map[string]error),
		Delay:   make(map[string]time.Duration),
	}
}

// Search implements ports.Searcher.
func (s *Searcher) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	delay := s.Delay[query]
	err := s.Errors[query]
	results := s.Results[query]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.SearchResult, len(results))
	for i, r := range results {
		out[i] = r.Clone()
	}
	return out, nil
}

// Queries returns the queries searched so far, in arrival order.
func (s *Searcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}
