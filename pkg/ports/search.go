package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// Searcher runs a web search for a single query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}
