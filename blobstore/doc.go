// Package blobstore provides the storage abstraction behind the
// decomposition, cluster artifact and feature stores.
//
// Names are slash-separated paths relative to the store root, e.g.
// "decompositions/mnist/left/Layer0/u.npy". Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic writes via rename
//   - MemoryStore: in-memory, for tests
//   - CachingStore: LRU read cache around any BlobStore
//   - minio.Store: MinIO and S3-compatible object storage
//   - s3.Store: Amazon S3
package blobstore
