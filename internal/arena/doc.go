// Package arena provides an off-heap bump allocator for pooled strings.
//
// The arena owns one block obtained from a raw memory service (anonymous
// mmap by default) and serves aligned allocations from it by advancing a
// cursor. It never grows: a request that does not fit returns ErrExhausted
// without moving the cursor.
//
// # Features
//
//   - Fixed [start, end) region, sized once by the capacity planner
//   - Generation tracking: Reset and Free invalidate every outstanding Ref
//   - Optional granted-range tracking (roaring64) to verify disjoint grants
//
// # Safety
//
// All methods return errors instead of panicking. Any use after Free
// returns ErrFreed.
package arena
