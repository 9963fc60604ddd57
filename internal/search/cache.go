package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	logx "kirana-agent/pkg/logger"
)

// CachedClient memoizes successful search responses for a short window,
// so repeated queries (price checks for the same item in the same area
// are common) do not re-hit the provider. Results are read-only
// downstream, errors are never cached, and stale entries age out on the
// TTL.
type CachedClient struct {
	inner Client
	cache *expirable.LRU[string, *Result]
}

func NewCachedClient(inner Client, size int, ttl time.Duration) *CachedClient {
	return &CachedClient{
		inner: inner,
		cache: expirable.NewLRU[string, *Result](size, nil, ttl),
	}
}

// Search returns a cached result when one is fresh, otherwise delegates
// to the wrapped client and caches the success.
func (c *CachedClient) Search(ctx context.Context, req Request) (*Result, error) {
	key := cacheKey(req)
	if res, ok := c.cache.Get(key); ok {
		logx.Debug().Str("query", req.Query).Msg("search cache hit")
		return res, nil
	}

	res, err := c.inner.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, res)
	return res, nil
}

func cacheKey(req Request) string {
	return fmt.Sprintf("%s|%s|%d", req.Query, req.Depth, req.MaxResults)
}

var _ Client = (*CachedClient)(nil)
