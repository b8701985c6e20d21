// Package resource bounds the resources used by analysis jobs.
//
// The Controller manages three resource types:
//
//   - Memory: track and limit bytes held by in-memory caches (non-blocking, fail-fast)
//   - Workers: limit how many layer or feature jobs run at once
//   - IO: rate-limit bytes written to the artifact and feature stores
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
