package store

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/JonMunkholm/collegemap/internal/core"
	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	info  core.CollegeInfo
	found bool
}

// Cached puts an LRU cache in front of a disk-backed store. Misses are
// cached too, since cutoff tables repeat the same college many times.
type Cached struct {
	next  core.ReferenceStore
	cache *lru.Cache[string, cacheEntry]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps next with a cache holding up to size ids.
func NewCached(next core.ReferenceStore, size int) (*Cached, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lookup cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Lookup implements core.Lookup.
func (c *Cached) Lookup(ctx context.Context, collegeID string) (core.CollegeInfo, bool, error) {
	if e, ok := c.cache.Get(collegeID); ok {
		c.hits.Add(1)
		return e.info, e.found, nil
	}
	c.misses.Add(1)

	info, found, err := c.next.Lookup(ctx, collegeID)
	if err != nil {
		return core.CollegeInfo{}, false, err
	}
	c.cache.Add(collegeID, cacheEntry{info: info, found: found})
	return info, found, nil
}

// Len implements core.ReferenceStore.
func (c *Cached) Len(ctx context.Context) (int, error) {
	return c.next.Len(ctx)
}

// Begin implements core.ReferenceStore. The cache is purged when the batch
// commits.
func (c *Cached) Begin(ctx context.Context) (core.ReferenceBatch, error) {
	b, err := c.next.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &cachedBatch{ReferenceBatch: b, cache: c.cache}, nil
}

// Stats returns cache hits and misses so far.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

type cachedBatch struct {
	core.ReferenceBatch
	cache *lru.Cache[string, cacheEntry]
}

func (b *cachedBatch) Commit(ctx context.Context) error {
	defer b.cache.Purge()
	return b.ReferenceBatch.Commit(ctx)
}
