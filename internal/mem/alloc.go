package mem

import (
	"unsafe"
)

// Alignment is the default block alignment (one cache line).
const Alignment = 64

// AllocAligned allocates a byte slice of the given size whose first byte is
// aligned to align, which must be a power of two. If align <= 0, Alignment is
// used.
//
// Note: This function allocates up to align-1 extra bytes to find an aligned
// start. The underlying array is kept alive by the returned slice.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if align <= 0 {
		align = Alignment
	}

	buf := make([]byte, size+align-1)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	mask := uintptr(align - 1)
	offset := (uintptr(align) - (addr & mask)) & mask

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// IsAligned reports whether b starts at a multiple of align.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 {
		return true
	}
	addr := uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // unsafe is required for memory alignment
	return addr&uintptr(align-1) == 0
}
