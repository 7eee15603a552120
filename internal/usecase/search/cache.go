package search

import (
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lorehub/lore/internal/metrics"
)

// QueryCache memoizes search responses keyed by a digest of the full
// request. Entries expire after ttl; identical inputs against an unchanged
// store return byte-identical results, so idempotence is preserved.
type QueryCache struct {
	entries *lru.Cache[[32]byte, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	results   []Result
	expiresAt time.Time
}

// newCache creates a cache of at most size entries. Returns nil for
// size <= 0, which disables caching (a nil *QueryCache is a no-op).
func newCache(size int, ttl time.Duration) *QueryCache {
	if size <= 0 {
		return nil
	}
	entries, err := lru.New[[32]byte, cacheEntry](size)
	if err != nil {
		// lru.New only fails on non-positive size, which is guarded above.
		panic(fmt.Sprintf("create query cache: %v", err))
	}
	return &QueryCache{entries: entries, ttl: ttl, now: time.Now}
}

// NewQueryCache is the exported constructor used by composition roots.
func NewQueryCache(size int, ttl time.Duration) *QueryCache {
	return newCache(size, ttl)
}

func (c *QueryCache) get(method, query string, opts Options) ([]Result, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.entries.Get(cacheKey(method, query, opts))
	if !ok || c.now().After(entry.expiresAt) {
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.SearchCacheTotal.WithLabelValues("hit").Inc()

	// Callers may re-sort or boost; hand out a copy.
	out := make([]Result, len(entry.results))
	copy(out, entry.results)
	return out, true
}

func (c *QueryCache) put(method, query string, opts Options, results []Result) {
	if c == nil {
		return
	}
	stored := make([]Result, len(results))
	copy(stored, results)
	c.entries.Add(cacheKey(method, query, opts), cacheEntry{
		results:   stored,
		expiresAt: c.now().Add(c.ttl),
	})
}

func cacheKey(method, query string, opts Options) [32]byte {
	return sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%s|%s|%s|%d",
		method, query, opts.Limit, opts.Category, optKey(opts.MinScore), optKey(opts.VectorWeight), opts.RRFK))
}

// optKey renders an optional field so that unset and explicit 0 hash
// differently.
func optKey(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *p)
}
