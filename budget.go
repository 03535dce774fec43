package strarena

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/strarena/internal/rawmem"
	"github.com/hupe1980/strarena/internal/resource"
)

// MemoryBudget caps the off-heap bytes reserved by the pools sharing it.
//
// A pool charges its arena size against the budget when it is created and
// returns it on Free. Forks share their parent's budget.
type MemoryBudget struct {
	ctrl *resource.Controller
}

// NewMemoryBudget creates a budget of limitBytes. A limit <= 0 tracks usage
// without enforcing a cap.
func NewMemoryBudget(limitBytes int64) *MemoryBudget {
	if limitBytes < 0 {
		limitBytes = 0
	}
	return &MemoryBudget{
		ctrl: resource.NewController(resource.Config{MemoryLimitBytes: limitBytes}),
	}
}

// ParseMemoryBudget creates a budget from a human-readable size such as
// "64 MiB" or "512kB".
func ParseMemoryBudget(limit string) (*MemoryBudget, error) {
	n, err := humanize.ParseBytes(limit)
	if err != nil {
		return nil, fmt.Errorf("%w: memory budget %q: %w", ErrInvalidConfig, limit, err)
	}
	if n > math.MaxInt64 {
		return nil, fmt.Errorf("%w: memory budget %q too large", ErrInvalidConfig, limit)
	}
	return NewMemoryBudget(int64(n)), nil
}

// Used returns the bytes currently reserved.
func (b *MemoryBudget) Used() int64 { return b.ctrl.MemoryUsage() }

// Limit returns the cap, or 0 if unlimited.
func (b *MemoryBudget) Limit() int64 { return b.ctrl.MemoryLimit() }

// Available returns the bytes left under the cap, or -1 if unlimited.
func (b *MemoryBudget) Available() int64 { return b.ctrl.MemoryAvailable() }

func (b *MemoryBudget) String() string {
	if b.Limit() == 0 {
		return fmt.Sprintf("MemoryBudget{used: %s, limit: none}", humanize.IBytes(uint64(b.Used()))) //nolint:gosec // usage is never negative
	}
	return fmt.Sprintf("MemoryBudget{used: %s, limit: %s}",
		humanize.IBytes(uint64(b.Used())),  //nolint:gosec // usage is never negative
		humanize.IBytes(uint64(b.Limit()))) //nolint:gosec // limit is never negative
}

func (b *MemoryBudget) acquirer() rawmem.MemoryAcquirer {
	if b == nil {
		return nil
	}
	return b.ctrl
}
