package rawmem

import "github.com/hupe1980/strarena/internal/mem"

// HeapService allocates blocks from the Go heap. It exists for platforms
// without anonymous mappings and for tests; the bytes are still a single
// pointer-free allocation, so the collector never scans their contents.
type HeapService struct {
	acquirer MemoryAcquirer
}

// NewHeapService creates a HeapService. acquirer may be nil.
func NewHeapService(acquirer MemoryAcquirer) *HeapService {
	return &HeapService{acquirer: acquirer}
}

// Allocate implements Service.
func (s *HeapService) Allocate(size int) (*Block, error) {
	if err := acquire(s.acquirer, size); err != nil {
		return nil, err
	}
	return &Block{data: mem.AllocAligned(size, AddressWidth)}, nil
}

// Free implements Service.
func (s *HeapService) Free(b *Block) error {
	if b.released.Swap(true) {
		return ErrReleased
	}
	size := len(b.data)
	b.data = nil
	release(s.acquirer, size)
	return nil
}
