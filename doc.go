// Package strarena copies strings into pre-sized off-heap arenas.
//
// Programs that hold millions of small strings pay for them twice: once for
// the bytes and again every time the garbage collector scans them. A Pool
// reserves one contiguous anonymous memory mapping up front and copies each
// string into it as a self-contained record. The collector never sees the
// copies.
//
// # Quick Start
//
//	pool, err := strarena.New(10_000, 32) // room for ~10k strings of 32 bytes
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Free()
//
//	h, err := pool.Get("hello")
//	if errors.Is(err, strarena.ErrExhausted) {
//	    // arena full: Reset, or Fork a fresh pool
//	}
//	s, _ := h.Value()
//
// # Sizing
//
// The arena size is computed once from the estimated count and length and never
// grows:
//
//	size = (header + align(payload)) * estimatedCount + 8
//
// where the header is 16 bytes and the payload is length × stride (1 for UTF-8,
// 2 for UTF-16). Allocation is a bump cursor aligned to 8 bytes; a Get that
// does not fit returns ErrExhausted without changing the arena.
//
// # Record Layout
//
// Each record is a 16-byte little-endian header followed by its payload:
//
//	[0:8)   payload offset within the arena
//	[8:12)  length in encoding units
//	[12]    layout version (1)
//	[13]    encoding (1 = UTF-8, 2 = UTF-16LE)
//	[14:16) reserved
//
// Handles decode the header on every read and check the arena generation, so
// a handle used after Reset, Reinit or Free reports ErrStaleHandle.
//
// # Lifecycle
//
//   - Reset rewinds the arena in place. Existing handles become stale.
//   - Free releases the mapping. Free is idempotent.
//   - Fork creates an independent pool with the same config.
//   - Reinit releases the arena and reserves a new one for a different config.
//   - FanOut forks one pool per worker and fills them concurrently.
//
// # Memory Budget
//
// Pools can share a MemoryBudget that caps the off-heap bytes they reserve:
//
//	budget := strarena.NewMemoryBudget(64 << 20)
//	pool, err := strarena.New(1_000, 16, strarena.WithMemoryBudget(budget))
//
// A pool whose arena would exceed the budget fails with an
// *InitializationError wrapping ErrOutOfMemory.
package strarena
