// Package resource accounts for off-heap memory reserved by arenas.
//
// A Controller is shared by every arena that should draw from the same
// budget, typically a pool and the pools forked from it. Reservations are
// fail-fast: AcquireMemory never waits for another arena to release memory.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(size); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(size)
//
// The limit is enforced with a weighted semaphore; usage is tracked with an
// atomic counter. All methods are safe for concurrent use, and a nil
// *Controller is valid: every method becomes a no-op.
package resource
