package rawmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/strarena/internal/mem"
	"github.com/hupe1980/strarena/internal/mmap"
	"github.com/hupe1980/strarena/internal/resource"
)

func services(acq MemoryAcquirer) map[string]Service {
	return map[string]Service{
		"mmap": NewMmapService(acq),
		"heap": NewHeapService(acq),
	}
}

func TestService_Block(t *testing.T) {
	for name, svc := range services(nil) {
		t.Run(name, func(t *testing.T) {
			b, err := svc.Allocate(64)
			require.NoError(t, err)
			defer svc.Free(b)

			assert.Equal(t, 64, b.Size())
			assert.False(t, b.Released())

			require.NoError(t, b.Copy(3, []byte("hello")))
			view, err := b.Bytes(3, 5)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(view))
			assert.Equal(t, 5, cap(view))

			require.NoError(t, b.WriteAddress(16, 0xDEADBEEF))
			v, err := b.ReadAddress(16)
			require.NoError(t, err)
			assert.Equal(t, Addr(0xDEADBEEF), v)

			raw, err := b.Bytes(16, AddressWidth)
			require.NoError(t, err)
			assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE, 0, 0, 0, 0}, raw)

			require.NoError(t, b.Advise(mmap.AccessWillNeed))
		})
	}
}

func TestService_Bounds(t *testing.T) {
	for name, svc := range services(nil) {
		t.Run(name, func(t *testing.T) {
			b, err := svc.Allocate(32)
			require.NoError(t, err)
			defer svc.Free(b)

			require.ErrorIs(t, b.Copy(30, []byte("abc")), ErrOutOfBounds)
			require.ErrorIs(t, b.WriteAddress(25, 1), ErrOutOfBounds)
			_, err = b.ReadAddress(33)
			require.ErrorIs(t, err, ErrOutOfBounds)
			_, err = b.Bytes(0, -1)
			require.ErrorIs(t, err, ErrOutOfBounds)
			_, err = b.Bytes(^Addr(0), 2)
			require.ErrorIs(t, err, ErrOutOfBounds)

			// The last byte and an empty view at the end are in range.
			_, err = b.Bytes(31, 1)
			require.NoError(t, err)
			_, err = b.Bytes(32, 0)
			require.NoError(t, err)
		})
	}
}

func TestService_Free(t *testing.T) {
	for name, svc := range services(nil) {
		t.Run(name, func(t *testing.T) {
			b, err := svc.Allocate(16)
			require.NoError(t, err)

			require.NoError(t, svc.Free(b))
			assert.True(t, b.Released())
			require.ErrorIs(t, svc.Free(b), ErrReleased)

			require.ErrorIs(t, b.Copy(0, []byte("x")), ErrReleased)
			_, err = b.ReadAddress(0)
			require.ErrorIs(t, err, ErrReleased)
			require.ErrorIs(t, b.WriteAddress(0, 1), ErrReleased)
			require.ErrorIs(t, b.Advise(mmap.AccessDontNeed), ErrReleased)
		})
	}
}

func TestService_MemoryLimit(t *testing.T) {
	for name, svc := range services(resource.NewController(resource.Config{MemoryLimitBytes: 100})) {
		t.Run(name, func(t *testing.T) {
			b1, err := svc.Allocate(60)
			require.NoError(t, err)

			_, err = svc.Allocate(60)
			require.ErrorIs(t, err, ErrOutOfMemory)
			require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

			require.NoError(t, svc.Free(b1))

			b2, err := svc.Allocate(100)
			require.NoError(t, err)
			require.NoError(t, svc.Free(b2))
		})
	}
}

func TestService_InvalidSize(t *testing.T) {
	for name, svc := range services(nil) {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Allocate(0)
			require.ErrorIs(t, err, ErrOutOfMemory)
		})
	}
}

func TestService_Alignment(t *testing.T) {
	for name, svc := range services(nil) {
		t.Run(name, func(t *testing.T) {
			for _, size := range []int{1, 7, 56, 4097} {
				b, err := svc.Allocate(size)
				require.NoError(t, err)
				assert.True(t, mem.IsAligned(b.data, AddressWidth), "size=%d", size)
				require.NoError(t, svc.Free(b))
			}
		})
	}
}
