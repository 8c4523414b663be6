package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Cache lookup outcomes reported to the observer.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// SearchCache decorates a ports.Searcher with a cache-aside layer.
// Cache failures are logged and never fail a search.
type SearchCache struct {
	client  *backend.Client
	next    ports.Searcher
	prefix  string
	ttl     time.Duration
	logger  *slog.Logger
	observe func(result string)
}

// CacheOption configures a SearchCache.
type CacheOption func(*SearchCache)

// WithCacheTTL sets how long results are kept.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *SearchCache) {
		c.ttl = ttl
	}
}

// WithCachePrefix sets the key prefix.
func WithCachePrefix(prefix string) CacheOption {
	return func(c *SearchCache) {
		c.prefix = prefix
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *SearchCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheObserver registers a callback receiving CacheHit, CacheMiss or CacheError.
func WithCacheObserver(fn func(result string)) CacheOption {
	return func(c *SearchCache) {
		c.observe = fn
	}
}

// NewSearchCache wraps next with a Redis cache.
func NewSearchCache(client *backend.Client, next ports.Searcher, opts ...CacheOption) *SearchCache {
	c := &SearchCache{
		client:  client,
		next:    next,
		prefix:  "espalier:search:",
		ttl:     time.Hour,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		observe: func(string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// normalize makes equivalent queries share a cache entry.
func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func (c *SearchCache) key(query string) string {
	sum := sha256.Sum256([]byte(normalize(query)))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Search returns cached results when present, otherwise queries the wrapped
// searcher and stores a successful answer.
func (c *SearchCache) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	key := c.key(query)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var results []domain.SearchResult
		if err := json.Unmarshal(data, &results); err == nil {
			c.observe(CacheHit)
			return results, nil
		}
		c.logger.Warn("discarding corrupt search cache entry", "query", query)
		c.observe(CacheError)
	case errors.Is(err, backend.Nil):
		c.observe(CacheMiss)
	default:
		c.logger.Warn("search cache read failed", "query", query, "err", err)
		c.observe(CacheError)
	}

	results, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(results); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("search cache write failed", "query", query, "err", err)
		}
	}
	return results, nil
}
