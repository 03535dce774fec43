// Package arena provides a fixed-size bump allocator over a single raw memory block.
//
// # Concurrency Model
//
// Arena is a single-writer structure. Allocate, Reset and Free must be
// serialized by the caller; the owning pool does this with one lock. Stats
// may be read concurrently.
//
// # Memory Management
//
// The block is sized once at construction and never grows. Individual
// allocations are never reclaimed: Reset rewinds the cursor over the same
// bytes and Free returns them to the raw memory service.
package arena

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/dustin/go-humanize"

	"github.com/hupe1980/strarena/internal/layout"
	"github.com/hupe1980/strarena/internal/mmap"
	"github.com/hupe1980/strarena/internal/rawmem"
)

var (
	// ErrExhausted is returned when the remaining space cannot hold a request.
	ErrExhausted = errors.New("arena: exhausted")
	// ErrFreed is returned for any use of an arena after Free.
	ErrFreed = errors.New("arena: use after free")
	// ErrInvalidSize is returned for non-positive allocation or arena sizes.
	ErrInvalidSize = errors.New("arena: invalid size")
	// ErrInvalidAlignment is returned for alignments that are not a power of two.
	ErrInvalidAlignment = errors.New("arena: invalid alignment")
	// ErrOverlap is returned by tracking arenas if a grant overlaps a previous one.
	ErrOverlap = errors.New("arena: overlapping allocation")
)

// DefaultAlignment is the default memory alignment (8 bytes).
const DefaultAlignment = layout.AddressWidth

// Stats tracks arena memory usage metrics.
//
// Note on semantics:
//   - Capacity: size of the block reserved from the raw memory service
//   - Used: bytes handed out by Allocate, excluding alignment padding
//   - Wasted: padding inserted in front of allocations for alignment
//   - Allocs, Exhaustions and Resets are cumulative over the arena's life
type Stats struct {
	Capacity    uint64
	Used        uint64
	Wasted      uint64
	Remaining   uint64
	Allocs      uint64
	Exhaustions uint64
	Resets      uint64
	Generation  uint32
}

// Ref represents a safe reference to an arena allocation.
// It includes the generation ID to detect stale references.
type Ref struct {
	Gen    uint32
	Offset uint64
}

type atomicStats struct {
	Used        atomic.Uint64
	Wasted      atomic.Uint64
	Cursor      atomic.Uint64
	Allocs      atomic.Uint64
	Exhaustions atomic.Uint64
	Resets      atomic.Uint64
}

// Arena is a fixed-size bump allocator over the range [start, end) of one block.
type Arena struct {
	svc   rawmem.Service
	block *rawmem.Block

	start  uint64
	end    uint64
	cursor uint64

	generation atomic.Uint32 // Generation counter to detect stale refs
	freed      atomic.Bool
	stats      atomicStats

	granted        *roaring64.Bitmap // nil unless tracking
	releaseOnReset bool
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithTracking records every granted byte range and rejects overlapping grants.
// Intended for tests and debugging; it costs a bitmap update per allocation.
func WithTracking() Option {
	return func(a *Arena) {
		a.granted = roaring64.New()
	}
}

// WithReleaseOnReset advises the kernel on Reset that the block's pages are no
// longer needed, so physical memory is returned while the reservation stays.
func WithReleaseOnReset() Option {
	return func(a *Arena) {
		a.releaseOnReset = true
	}
}

// New reserves size bytes from svc and returns an empty arena over them.
func New(svc rawmem.Service, size int, opts ...Option) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	block, err := svc.Allocate(size)
	if err != nil {
		return nil, err
	}

	a := &Arena{
		svc:   svc,
		block: block,
		start: 0,
		end:   uint64(block.Size()),
	}
	a.cursor = a.start

	for _, opt := range opts {
		opt(a)
	}

	// Initialize generation to 1 so the zero Ref is never valid
	a.generation.Store(1)

	return a, nil
}

// Allocate reserves size bytes aligned to align and returns a reference to
// the first byte. If align <= 0, DefaultAlignment is used.
//
// When the aligned request does not fit before end, ErrExhausted is returned
// and the cursor is left untouched.
func (a *Arena) Allocate(size, align int) (Ref, error) {
	if a.freed.Load() {
		return Ref{}, ErrFreed
	}
	if size <= 0 {
		return Ref{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if align <= 0 {
		align = DefaultAlignment
	}
	if align&(align-1) != 0 {
		return Ref{}, fmt.Errorf("%w: %d", ErrInvalidAlignment, align)
	}

	aligned := layout.AlignUp64(a.cursor, uint64(align))
	if aligned > a.end || uint64(size) > a.end-aligned {
		a.stats.Exhaustions.Add(1)
		return Ref{}, ErrExhausted
	}
	next := aligned + uint64(size)

	if a.granted != nil {
		if a.overlaps(aligned, next) {
			return Ref{}, fmt.Errorf("%w: [%d, %d)", ErrOverlap, aligned, next)
		}
		a.granted.AddRange(aligned, next)
	}

	a.stats.Wasted.Add(aligned - a.cursor)
	a.stats.Used.Add(uint64(size))
	a.stats.Allocs.Add(1)
	a.cursor = next
	a.stats.Cursor.Store(next)

	return Ref{Gen: a.generation.Load(), Offset: aligned}, nil
}

func (a *Arena) overlaps(from, to uint64) bool {
	below := uint64(0)
	if from > 0 {
		below = a.granted.Rank(from - 1)
	}
	return a.granted.Rank(to-1) > below
}

// Reset rewinds the cursor to the start of the block and invalidates all refs.
// The same bytes are reused; nothing is returned to the raw memory service.
func (a *Arena) Reset() error {
	if a.freed.Load() {
		return ErrFreed
	}

	// Increment generation to invalidate old references
	a.generation.Add(1)
	a.cursor = a.start
	a.stats.Cursor.Store(a.start)
	a.stats.Used.Store(0)
	a.stats.Wasted.Store(0)
	a.stats.Resets.Add(1)

	if a.granted != nil {
		a.granted.Clear()
	}
	if a.releaseOnReset {
		return a.block.Advise(mmap.AccessDontNeed)
	}
	return nil
}

// Free returns the block to the raw memory service. The arena cannot be
// reused; every later call returns ErrFreed.
func (a *Arena) Free() error {
	if a.freed.Swap(true) {
		return ErrFreed
	}
	a.generation.Add(1)
	a.stats.Used.Store(0)
	a.stats.Wasted.Store(0)
	return a.svc.Free(a.block)
}

// Freed reports whether Free has been called.
func (a *Arena) Freed() bool {
	return a.freed.Load()
}

// Generation returns the current generation of the arena.
func (a *Arena) Generation() uint32 {
	return a.generation.Load()
}

// Valid reports whether ref was issued in the current generation.
func (a *Arena) Valid(ref Ref) bool {
	return !a.freed.Load() && ref.Gen == a.generation.Load()
}

// Bounds returns the arena's [start, end) range.
func (a *Arena) Bounds() (start, end uint64) {
	return a.start, a.end
}

// Cursor returns the offset of the next free byte.
func (a *Arena) Cursor() uint64 {
	return a.stats.Cursor.Load()
}

// Bytes returns a view of n bytes at offset at.
func (a *Arena) Bytes(at uint64, n int) ([]byte, error) {
	if a.freed.Load() {
		return nil, ErrFreed
	}
	return a.block.Bytes(at, n)
}

// Copy copies src into the arena at offset dst.
func (a *Arena) Copy(dst uint64, src []byte) error {
	if a.freed.Load() {
		return ErrFreed
	}
	return a.block.Copy(dst, src)
}

// ReadAddress reads an address field at offset at.
func (a *Arena) ReadAddress(at uint64) (uint64, error) {
	if a.freed.Load() {
		return 0, ErrFreed
	}
	return a.block.ReadAddress(at)
}

// WriteAddress writes an address field at offset at.
func (a *Arena) WriteAddress(at, v uint64) error {
	if a.freed.Load() {
		return ErrFreed
	}
	return a.block.WriteAddress(at, v)
}

// Granted returns a copy of the granted byte ranges of the current
// generation, or nil if the arena was not created WithTracking.
func (a *Arena) Granted() *roaring64.Bitmap {
	if a.granted == nil {
		return nil
	}
	return a.granted.Clone()
}

// Stats returns the current arena statistics.
func (a *Arena) Stats() Stats {
	capacity := a.end - a.start
	remaining := uint64(0)
	if !a.freed.Load() {
		remaining = a.end - a.stats.Cursor.Load()
	} else {
		capacity = 0
	}
	return Stats{
		Capacity:    capacity,
		Used:        a.stats.Used.Load(),
		Wasted:      a.stats.Wasted.Load(),
		Remaining:   remaining,
		Allocs:      a.stats.Allocs.Load(),
		Exhaustions: a.stats.Exhaustions.Load(),
		Resets:      a.stats.Resets.Load(),
		Generation:  a.generation.Load(),
	}
}

// Usage returns the memory usage percentage.
func (a *Arena) Usage() float64 {
	stats := a.Stats()
	if stats.Capacity == 0 {
		return 0
	}
	return float64(stats.Capacity-stats.Remaining) / float64(stats.Capacity) * 100
}

func (a *Arena) String() string {
	stats := a.Stats()
	return fmt.Sprintf(
		"Arena{capacity: %s, used: %s, wasted: %s, remaining: %s, usage: %.1f%%, allocs: %d, gen: %d}",
		humanize.IBytes(stats.Capacity),
		humanize.IBytes(stats.Used),
		humanize.IBytes(stats.Wasted),
		humanize.IBytes(stats.Remaining),
		a.Usage(),
		stats.Allocs,
		stats.Generation,
	)
}
