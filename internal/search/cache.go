package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/metrics"
	"github.com/ariefcatur/go-rental-ledger/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Cache keeps search results in redis under the current catalog generation.
// Invalidate bumps the generation so every older entry stops being read and
// expires on its own. A nil Cache never hits.
type Cache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewCache(rdb redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Lookup returns the cached views for f and the generation it read. The
// generation is handed back to Store so a result computed before an
// invalidation is never filed under the newer generation.
func (c *Cache) Lookup(ctx context.Context, f Filters) (views []PropertyView, gen int64, ok bool) {
	if c == nil {
		return nil, 0, false
	}
	gen, err := c.rdb.Get(ctx, redisx.KeySearchGen).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, -1, false
	}
	raw, err := c.rdb.Get(ctx, resultKey(gen, f)).Bytes()
	if err != nil {
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return nil, gen, false
	}
	if err := json.Unmarshal(raw, &views); err != nil {
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return nil, gen, false
	}
	metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
	return views, gen, true
}

func (c *Cache) Store(ctx context.Context, gen int64, f Filters, views []PropertyView) error {
	if c == nil || gen < 0 {
		return nil
	}
	raw, err := json.Marshal(views)
	if err != nil {
		return fmt.Errorf("encode search result: %w", err)
	}
	return c.rdb.Set(ctx, resultKey(gen, f), raw, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Incr(ctx, redisx.KeySearchGen).Err()
}

func resultKey(gen int64, f Filters) string {
	raw, _ := json.Marshal(f)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf(redisx.KeySearchResult, gen, hex.EncodeToString(sum[:]))
}
