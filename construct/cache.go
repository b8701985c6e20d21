package construct

import (
	"context"
	"slices"
	"sync"

	"github.com/hupe1980/lja/store"
)

// Cache memoizes constructed features. store.Features is the persistent
// implementation.
type Cache interface {
	// Get returns the feature for k; ok is false if none was stored.
	Get(ctx context.Context, k store.FeatureKey) (vec []float64, ok bool, err error)
	Put(ctx context.Context, k store.FeatureKey, vec []float64) error
}

var _ Cache = (*store.Features)(nil)

// MemoryCache is an in-memory Cache safe for concurrent use.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[store.FeatureKey][]float64
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[store.FeatureKey][]float64)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, k store.FeatureKey) ([]float64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[k]
	return slices.Clone(v), ok, nil
}

// Put implements Cache.
func (c *MemoryCache) Put(_ context.Context, k store.FeatureKey, vec []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = slices.Clone(vec)
	return nil
}

// Len returns the number of cached features.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
