// Package cache provides a byte-bounded LRU cache for immutable blobs.
//
// The blob store caching layer uses it to keep recently read artifacts and
// features in memory. Memory can optionally be accounted against a
// resource.Controller.
package cache
