package strarena

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, cfg Config, opts ...Option) *Pool {
	t.Helper()
	p, err := NewWithConfig(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Free() })
	return p
}

func TestPool_CapacityScenario(t *testing.T) {
	p := newTestPool(t, Config{EstimatedCount: 2, EstimatedLength: 4, Encoding: EncodingUTF16})
	assert.Equal(t, 56, p.Size())

	ab, err := p.Get("ab")
	require.NoError(t, err)
	cdef, err := p.Get("cdef")
	require.NoError(t, err)

	_, err = p.Get("xy")
	require.ErrorIs(t, err, ErrExhausted)

	v, err := ab.Value()
	require.NoError(t, err)
	assert.Equal(t, "ab", v)
	v, err = cdef.Value()
	require.NoError(t, err)
	assert.Equal(t, "cdef", v)

	stats := p.Stats()
	assert.Equal(t, uint64(56), stats.Capacity)
	assert.Equal(t, uint64(48), stats.Used)
	assert.Equal(t, uint64(8), stats.Remaining)
	assert.Equal(t, uint64(2), stats.Records)
	assert.Equal(t, uint64(1), stats.Exhaustions)
}

func TestPool_Degenerate(t *testing.T) {
	p, err := New(0, 0)
	require.NoError(t, err)
	defer p.Free()

	assert.Equal(t, 8, p.Size())

	_, err = p.Get("a")
	require.ErrorIs(t, err, ErrExhausted)
	_, err = p.Get("")
	require.ErrorIs(t, err, ErrExhausted)
}

func TestPool_New(t *testing.T) {
	t.Run("default encoding", func(t *testing.T) {
		p := newTestPool(t, Config{EstimatedCount: 1, EstimatedLength: 1})
		assert.Equal(t, EncodingUTF8, p.Config().Encoding)
		assert.Equal(t, 32, p.Size())
	})

	t.Run("encoding option", func(t *testing.T) {
		p := newTestPool(t, Config{EstimatedCount: 2, EstimatedLength: 4}, WithEncoding(EncodingUTF16))
		assert.Equal(t, EncodingUTF16, p.Config().Encoding)
		assert.Equal(t, 56, p.Size())
	})

	t.Run("config encoding wins", func(t *testing.T) {
		p := newTestPool(t, Config{EstimatedCount: 1, EstimatedLength: 1, Encoding: EncodingUTF8}, WithEncoding(EncodingUTF16))
		assert.Equal(t, EncodingUTF8, p.Config().Encoding)
	})

	t.Run("heap backing", func(t *testing.T) {
		p := newTestPool(t, Config{EstimatedCount: 4, EstimatedLength: 8}, WithHeapBacking())
		h, err := p.Get("on heap")
		require.NoError(t, err)
		v, err := h.Value()
		require.NoError(t, err)
		assert.Equal(t, "on heap", v)
	})

	t.Run("unique ids", func(t *testing.T) {
		a := newTestPool(t, Config{EstimatedCount: 1})
		b := newTestPool(t, Config{EstimatedCount: 1})
		assert.NotEmpty(t, a.ID())
		assert.NotEqual(t, a.ID(), b.ID())
	})
}

func TestPool_InitializationError(t *testing.T) {
	tests := []struct {
		name   string
		count  int
		length int
		opts   []Option
		want   error
	}{
		{"negative count", -1, 4, nil, ErrInvalidConfig},
		{"negative length", 1, -4, nil, ErrInvalidConfig},
		{"overflow", int(^uint(0) >> 1), 1024, nil, ErrInvalidConfig},
		{"unknown encoding", 1, 1, []Option{WithEncoding(Encoding(9))}, ErrInvalidConfig},
		{"budget", 100, 100, []Option{WithMemoryBudget(NewMemoryBudget(64))}, ErrOutOfMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.count, tt.length, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, p)
			require.ErrorIs(t, err, tt.want)

			var ierr *InitializationError
			require.ErrorAs(t, err, &ierr)
			assert.Equal(t, tt.count, ierr.EstimatedCount)
			assert.Equal(t, tt.length, ierr.EstimatedLength)
		})
	}
}

func TestPool_Reset(t *testing.T) {
	p := newTestPool(t, Config{EstimatedCount: 2, EstimatedLength: 8}, WithReleaseOnReset())

	first, err := p.Get("one")
	require.NoError(t, err)
	_, err = p.Get("two")
	require.NoError(t, err)
	_, err = p.Get("three")
	require.ErrorIs(t, err, ErrExhausted)

	require.NoError(t, p.Reset())

	assert.False(t, first.Valid())
	_, err = first.Value()
	require.ErrorIs(t, err, ErrStaleHandle)

	again, err := p.Get("again")
	require.NoError(t, err)
	assert.Equal(t, first.Offset(), again.Offset())
	assert.Equal(t, 56, p.Size())

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Resets)
	assert.Equal(t, uint32(2), stats.Generation)
}

func TestPool_Free(t *testing.T) {
	p, err := New(4, 8)
	require.NoError(t, err)

	h, err := p.Get("value")
	require.NoError(t, err)

	require.NoError(t, p.Free())
	require.NoError(t, p.Free())
	assert.True(t, p.Freed())

	_, err = p.Get("x")
	require.ErrorIs(t, err, ErrPoolFreed)
	require.ErrorIs(t, p.Reset(), ErrPoolFreed)
	require.ErrorIs(t, p.Reinit(Config{EstimatedCount: 1}), ErrPoolFreed)

	assert.False(t, h.Valid())
	_, err = h.Value()
	require.ErrorIs(t, err, ErrStaleHandle)
	_, err = h.Len()
	require.ErrorIs(t, err, ErrStaleHandle)

	stats := p.Stats()
	assert.True(t, stats.Freed)
	assert.Zero(t, stats.Capacity)

	// A freed pool still knows its config.
	fork, err := p.Fork()
	require.NoError(t, err)
	defer fork.Free()
	_, err = fork.Get("x")
	require.NoError(t, err)
}

func TestPool_Fork(t *testing.T) {
	parent := newTestPool(t, Config{EstimatedCount: 1, EstimatedLength: 8})

	ph, err := parent.Get("parent")
	require.NoError(t, err)
	_, err = parent.Get("full")
	require.ErrorIs(t, err, ErrExhausted)

	child, err := parent.Fork()
	require.NoError(t, err)
	defer child.Free()

	assert.NotEqual(t, parent.ID(), child.ID())
	assert.Equal(t, parent.Config(), child.Config())
	assert.Equal(t, parent.Size(), child.Size())

	ch, err := child.Get("child")
	require.NoError(t, err)

	require.NoError(t, child.Reset())
	require.NoError(t, child.Free())

	assert.False(t, ch.Valid())
	v, err := ph.Value()
	require.NoError(t, err)
	assert.Equal(t, "parent", v)
}

func TestPool_Reinit(t *testing.T) {
	budget := NewMemoryBudget(0)
	p := newTestPool(t, Config{EstimatedCount: 1, EstimatedLength: 4}, WithMemoryBudget(budget))
	assert.Equal(t, int64(32), budget.Used())

	old, err := p.Get("abcd")
	require.NoError(t, err)
	_, err = p.Get("x")
	require.ErrorIs(t, err, ErrExhausted)

	require.NoError(t, p.Reinit(Config{EstimatedCount: 4, EstimatedLength: 4, Encoding: EncodingUTF16}))
	assert.Equal(t, (16+8)*4+8, p.Size())
	assert.Equal(t, int64(p.Size()), budget.Used())
	assert.Equal(t, EncodingUTF16, p.Config().Encoding)

	// Records of the previous arena never alias the new one, even though the
	// new arena starts at the same generation.
	assert.False(t, old.Valid())
	_, err = old.Value()
	require.ErrorIs(t, err, ErrStaleHandle)

	for i := range 4 {
		_, err := p.Get(fmt.Sprintf("v%d", i))
		require.NoError(t, err)
	}

	t.Run("failure leaves pool freed", func(t *testing.T) {
		err := p.Reinit(Config{EstimatedCount: -1})
		var ierr *InitializationError
		require.ErrorAs(t, err, &ierr)
		require.ErrorIs(t, err, ErrInvalidConfig)

		assert.True(t, p.Freed())
		assert.Zero(t, budget.Used())
		_, err = p.Get("x")
		require.ErrorIs(t, err, ErrPoolFreed)
	})
}

func TestPool_MemoryBudget(t *testing.T) {
	budget := NewMemoryBudget(100)

	p1, err := New(2, 4, WithMemoryBudget(budget))
	require.NoError(t, err)
	assert.Equal(t, int64(56), budget.Used())

	_, err = p1.Fork()
	require.ErrorIs(t, err, ErrOutOfMemory)

	_, err = New(2, 4, WithMemoryBudget(budget))
	var ierr *InitializationError
	require.ErrorAs(t, err, &ierr)
	require.ErrorIs(t, err, ErrOutOfMemory)

	require.NoError(t, p1.Free())
	assert.Zero(t, budget.Used())

	p2, err := New(2, 4, WithMemoryBudget(budget))
	require.NoError(t, err)
	require.NoError(t, p2.Free())
}

func TestPool_ConcurrentGet(t *testing.T) {
	const (
		workers = 8
		perWork = 100
	)
	p := newTestPool(t, Config{EstimatedCount: workers * perWork, EstimatedLength: 8}, WithAllocationTracking())

	handles := make([][]*PooledString, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWork {
				h, err := p.Get(fmt.Sprintf("w%d-%d", w, i))
				if err != nil {
					t.Errorf("get: %v", err)
					return
				}
				handles[w] = append(handles[w], h)
			}
		}()
	}
	wg.Wait()

	offsets := make(map[uint64]struct{}, workers*perWork)
	for w := range workers {
		require.Len(t, handles[w], perWork)
		for i, h := range handles[w] {
			v, err := h.Value()
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("w%d-%d", w, i), v)
			offsets[h.Offset()] = struct{}{}
		}
	}
	assert.Len(t, offsets, workers*perWork)

	stats := p.Stats()
	assert.Equal(t, stats.Used, p.arena.Granted().GetCardinality())
	assert.Zero(t, stats.Exhaustions)
}

func TestPool_ConcurrentReadsAndReset(t *testing.T) {
	p := newTestPool(t, Config{EstimatedCount: 64, EstimatedLength: 8})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			want := fmt.Sprintf("reader%d", r)
			for {
				select {
				case <-stop:
					return
				default:
				}
				h, err := p.Get(want)
				if errors.Is(err, ErrExhausted) {
					continue
				}
				if err != nil {
					t.Errorf("get: %v", err)
					return
				}
				got, err := h.Clone()
				if err != nil && !errors.Is(err, ErrStaleHandle) {
					t.Errorf("clone: %v", err)
					return
				}
				if err == nil && got != want {
					t.Errorf("expected %q, got %q", want, got)
					return
				}
			}
		}()
	}

	for range 200 {
		require.NoError(t, p.Reset())
	}
	close(stop)
	wg.Wait()
}

func TestPool_String(t *testing.T) {
	p := newTestPool(t, Config{EstimatedCount: 2, EstimatedLength: 4, Encoding: EncodingUTF16})
	_, err := p.Get("ab")
	require.NoError(t, err)

	s := p.String()
	assert.Contains(t, s, p.ID())
	assert.Contains(t, s, "encoding: utf16")
	assert.Contains(t, s, "capacity: 56 B")
	assert.Contains(t, s, "records: 1")
}
