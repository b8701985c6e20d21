package blobstore

import (
	"context"

	"github.com/hupe1980/lja/internal/cache"
	"golang.org/x/sync/singleflight"
)

// CachingStore wraps a BlobStore and keeps whole blobs in an LRU cache.
// Concurrent misses for the same name are collapsed into a single read.
type CachingStore struct {
	inner BlobStore
	cache *cache.LRU
	group singleflight.Group
}

// NewCachingStore creates a new CachingStore.
func NewCachingStore(inner BlobStore, c *cache.LRU) *CachingStore {
	return &CachingStore{inner: inner, cache: c}
}

// Get returns the named blob, reading through the cache.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if b, ok := s.cache.Get(name); ok {
		return b, nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		b, err := ReadAll(ctx, s.inner, name)
		if err != nil {
			return nil, err
		}
		s.cache.Set(name, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return &bytesBlob{data: b}, nil
}

func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.cache.Delete(name)
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &invalidatingBlob{WritableBlob: w, cache: s.cache, name: name}, nil
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Delete(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Delete(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns the cache hit and miss counts.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

type invalidatingBlob struct {
	WritableBlob
	cache *cache.LRU
	name  string
}

func (b *invalidatingBlob) Close() error {
	err := b.WritableBlob.Close()
	b.cache.Delete(b.name)
	return err
}
