// Package mem provides aligned heap allocation for heap-backed arena blocks.
//
// # Aligned Allocation
//
// The Go allocator only guarantees alignment to the element type. Arena
// records store 8-byte address fields at offsets that are multiples of the
// address width, so heap blocks must start on such a boundary too.
package mem
