package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/espalier/internal/fakes"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCache_HitAndMiss(t *testing.T) {
	mr, client := newClient(t)
	upstream := fakes.NewSearcher()
	upstream.Results["Quantum  Computing"] = []domain.SearchResult{{Title: "Q", Content: "qubits", Extra: map[string]any{"raw": "x"}}}
	upstream.Results["quantum computing"] = []domain.SearchResult{{Title: "Q", Content: "qubits"}}

	var outcomes []string
	cache := redis.NewSearchCache(client, upstream,
		redis.WithCacheTTL(time.Minute),
		redis.WithCacheObserver(func(r string) { outcomes = append(outcomes, r) }),
	)
	ctx := context.Background()

	first, err := cache.Search(ctx, "Quantum  Computing")
	require.NoError(t, err)
	second, err := cache.Search(ctx, "quantum computing")
	require.NoError(t, err)

	assert.Equal(t, []string{redis.CacheMiss, redis.CacheHit}, outcomes)
	assert.Equal(t, []string{"Quantum  Computing"}, upstream.Queries(), "normalized query served from cache")
	assert.Equal(t, first[0].Content, second[0].Content)
	assert.Equal(t, "x", second[0].Extra["raw"])

	mr.FastForward(2 * time.Minute)
	_, err = cache.Search(ctx, "quantum computing")
	require.NoError(t, err)
	assert.Equal(t, redis.CacheMiss, outcomes[len(outcomes)-1])
}

func TestSearchCache_UpstreamErrorNotCached(t *testing.T) {
	_, client := newClient(t)
	upstream := fakes.NewSearcher()
	upstream.Errors["down"] = errors.New("503")

	cache := redis.NewSearchCache(client, upstream)
	_, err := cache.Search(context.Background(), "down")
	assert.Error(t, err)

	delete(upstream.Errors, "down")
	results, err := cache.Search(context.Background(), "down")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Len(t, upstream.Queries(), 2)
}

func TestSearchCache_RedisDown(t *testing.T) {
	mr, client := newClient(t)
	upstream := fakes.NewSearcher()
	upstream.Results["q"] = []domain.SearchResult{{Content: "c"}}

	var outcomes []string
	cache := redis.NewSearchCache(client, upstream, redis.WithCacheObserver(func(r string) { outcomes = append(outcomes, r) }))
	mr.Close()

	results, err := cache.Search(context.Background(), "q")
	require.NoError(t, err, "cache failures never fail the search")
	assert.Len(t, results, 1)
	assert.Equal(t, []string{redis.CacheError}, outcomes)
}
