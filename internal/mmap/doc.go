// Package mmap provides anonymous memory mappings for off-heap allocation.
//
// # Overview
//
// MapAnon obtains read-write memory directly from the operating system. The
// Go garbage collector never scans or moves it, which makes it a suitable
// backing store for arenas holding many string copies.
//
//	m, err := mmap.MapAnon(1 << 20)
//	if err != nil { ... }
//	defer m.Close()
//
//	buf := m.Bytes()
//
//	// Hand physical pages back while keeping the reservation.
//	m.Advise(mmap.AccessDontNeed)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE, madvise(2) for hints
//   - Windows: VirtualAlloc/VirtualFree; only AccessDontNeed has an effect (MEM_RESET)
//   - Other platforms: MapAnon returns ErrUnsupported
//
// # Thread Safety
//
// Close is idempotent and protected by an atomic flag. Callers must ensure no
// goroutine touches Bytes() after Close() returns.
package mmap
