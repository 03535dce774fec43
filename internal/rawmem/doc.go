// Package rawmem is the raw memory boundary of the arena: it hands out untyped
// byte blocks and offers byte copies and address-sized reads and writes on
// them.
//
// Addresses are byte offsets into a Block. Address values are stored as
// 8-byte little-endian integers regardless of the host pointer size, so the
// record format does not depend on the platform.
//
// Two services are provided:
//
//   - MmapService: anonymous mappings (see package mmap), the default
//   - HeapService: a plain []byte, for platforms without mmap and for tests
//
// Both can charge a MemoryAcquirer (for example *resource.Controller) for
// every block; a rejected reservation surfaces as ErrOutOfMemory.
//
// Block methods do not lock. Callers serialize writers, as strarena.Pool does
// with its write lock.
package rawmem
