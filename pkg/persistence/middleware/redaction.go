package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks text matching any of
// the patterns before a snapshot is stored. Provider extras whose key matches
// a pattern are masked entirely. The in-memory state is never modified.
func NewRedactionMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, snap domain.Snapshot) error {
	// Clone first: the engine may still hold this state.
	s := snap.State.Clone()

	s.Topic = m.mask(s.Topic)
	s.Summary = m.mask(s.Summary)
	for i := range s.SearchQueries {
		s.SearchQueries[i] = m.mask(s.SearchQueries[i])
	}
	for i := range s.KeyFindings {
		s.KeyFindings[i] = m.mask(s.KeyFindings[i])
	}
	for i := range s.SearchResults {
		r := &s.SearchResults[i]
		r.Title = m.mask(r.Title)
		r.Content = m.mask(r.Content)
		m.maskKeys(r.Extra)
	}

	snap.State = s
	return m.next.Save(ctx, snap)
}

func (m *redactionMiddleware) Load(ctx context.Context, requestID string) (domain.Snapshot, error) {
	return m.next.Load(ctx, requestID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, requestID string) error {
	return m.next.Delete(ctx, requestID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *redactionMiddleware) maskKeys(extra map[string]any) {
	for k := range extra {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				extra[k] = Mask
				break
			}
		}
	}
}
