package rawmem

import (
	"fmt"

	"github.com/hupe1980/strarena/internal/mmap"
)

// MmapService allocates blocks from anonymous memory mappings, outside the
// Go heap.
type MmapService struct {
	acquirer MemoryAcquirer
}

// NewMmapService creates an MmapService. acquirer may be nil.
func NewMmapService(acquirer MemoryAcquirer) *MmapService {
	return &MmapService{acquirer: acquirer}
}

// Allocate implements Service.
func (s *MmapService) Allocate(size int) (*Block, error) {
	if err := acquire(s.acquirer, size); err != nil {
		return nil, err
	}

	mapping, err := mmap.MapAnon(size)
	if err != nil {
		release(s.acquirer, size)
		return nil, fmt.Errorf("%w: failed to map %d bytes: %w", ErrOutOfMemory, size, err)
	}

	return &Block{data: mapping.Bytes(), mapping: mapping}, nil
}

// Free implements Service.
func (s *MmapService) Free(b *Block) error {
	if b.released.Swap(true) {
		return ErrReleased
	}
	size := len(b.data)
	b.data = nil

	err := b.mapping.Close()
	release(s.acquirer, size)
	return err
}
