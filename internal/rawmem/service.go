package rawmem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/strarena/internal/mmap"
)

var (
	// ErrOutOfMemory is returned when a block of the requested size cannot be provided.
	ErrOutOfMemory = errors.New("rawmem: out of memory")
	// ErrReleased is returned when a block is used after it was freed.
	ErrReleased = errors.New("rawmem: block released")
	// ErrOutOfBounds is returned for accesses outside a block.
	ErrOutOfBounds = errors.New("rawmem: out of bounds")
)

// AddressWidth is the size of an address value written by WriteAddress.
const AddressWidth = 8

// Addr is a byte offset into a Block.
type Addr = uint64

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(amount int64) error
	ReleaseMemory(amount int64)
}

// Service hands out untyped byte ranges.
type Service interface {
	// Allocate returns a zeroed block of exactly size bytes.
	Allocate(size int) (*Block, error)
	// Free returns the block to the service. Freeing twice returns ErrReleased.
	Free(b *Block) error
}

// Block is a contiguous byte range owned by a Service.
type Block struct {
	data     []byte
	mapping  *mmap.Mapping // nil for heap blocks
	released atomic.Bool
}

// Size returns the size of the block in bytes.
func (b *Block) Size() int {
	return len(b.data)
}

// Released reports whether the block has been freed.
func (b *Block) Released() bool {
	return b.released.Load()
}

func (b *Block) check(at Addr, n int) error {
	if b.released.Load() {
		return ErrReleased
	}
	if n < 0 || at > uint64(len(b.data)) || uint64(n) > uint64(len(b.data))-at { //nolint:gosec // n >= 0
		return fmt.Errorf("%w: [%d, +%d) of %d", ErrOutOfBounds, at, n, len(b.data))
	}
	return nil
}

// Bytes returns a view of n bytes starting at at.
// The view aliases the block and must not be used after Free.
func (b *Block) Bytes(at Addr, n int) ([]byte, error) {
	if err := b.check(at, n); err != nil {
		return nil, err
	}
	return b.data[at : at+uint64(n) : at+uint64(n)], nil //nolint:gosec // checked above
}

// Copy copies src into the block at dst.
func (b *Block) Copy(dst Addr, src []byte) error {
	if err := b.check(dst, len(src)); err != nil {
		return err
	}
	copy(b.data[dst:], src)
	return nil
}

// ReadAddress reads an address-sized value at at.
func (b *Block) ReadAddress(at Addr) (Addr, error) {
	if err := b.check(at, AddressWidth); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b.data[at:]), nil
}

// WriteAddress writes an address-sized value at at.
func (b *Block) WriteAddress(at Addr, v Addr) error {
	if err := b.check(at, AddressWidth); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.data[at:], v)
	return nil
}

// Advise passes an access hint to the kernel. Heap blocks ignore hints.
func (b *Block) Advise(pattern mmap.AccessPattern) error {
	if b.released.Load() {
		return ErrReleased
	}
	if b.mapping == nil {
		return nil
	}
	return b.mapping.Advise(pattern)
}

func acquire(acq MemoryAcquirer, size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: invalid size %d", ErrOutOfMemory, size)
	}
	if acq == nil {
		return nil
	}
	if err := acq.AcquireMemory(int64(size)); err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	return nil
}

func release(acq MemoryAcquirer, size int) {
	if acq != nil {
		acq.ReleaseMemory(int64(size))
	}
}
