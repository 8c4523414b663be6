package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Document is an entry of an offline search corpus.
type Document struct {
	Title    string   `yaml:"title"`
	URL      string   `yaml:"url"`
	Content  string   `yaml:"content"`
	Keywords []string `yaml:"keywords"`
}

// Searcher implements ports.Searcher over a fixed corpus. It is meant for
// offline runs and demos: documents are ranked by how many query terms they
// contain.
type Searcher struct {
	docs       []Document
	maxResults int
}

// NewSearcher creates a searcher over docs returning at most maxResults hits
// per query (all hits when maxResults <= 0).
func NewSearcher(maxResults int, docs ...Document) *Searcher {
	return &Searcher{docs: docs, maxResults: maxResults}
}

// LoadCorpus reads a YAML list of documents.
func LoadCorpus(r io.Reader) ([]Document, error) {
	var docs []Document
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	return docs, nil
}

// LoadCorpusFile reads a YAML corpus from path.
func LoadCorpusFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCorpus(f)
}

type hit struct {
	index int
	score float64
}

// Search returns the documents matching at least one query term, best first.
func (s *Searcher) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []domain.SearchResult{}, nil
	}

	var hits []hit
	for i, d := range s.docs {
		text := strings.ToLower(d.Title + " " + d.Content + " " + strings.Join(d.Keywords, " "))
		matched := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched++
			}
		}
		if matched > 0 {
			hits = append(hits, hit{index: i, score: float64(matched) / float64(len(terms))})
		}
	}

	// Deterministic order: score, then corpus position.
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if s.maxResults > 0 && len(hits) > s.maxResults {
		hits = hits[:s.maxResults]
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		d := s.docs[h.index]
		results = append(results, domain.SearchResult{
			Title:   d.Title,
			URL:     d.URL,
			Content: d.Content,
			Score:   h.score,
		})
	}
	return results, nil
}
