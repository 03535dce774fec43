package strarena

import (
	"strings"

	"github.com/hupe1980/strarena/internal/arena"
	"github.com/hupe1980/strarena/internal/materialize"
)

// PooledString is a handle to a string copied into a pool.
//
// The handle does not keep the source string alive. Every read decodes the
// record header and checks that the record still belongs to the pool's
// current arena generation, so reads after Reset, Reinit or Free fail with
// ErrStaleHandle instead of returning reused memory.
type PooledString struct {
	pool *Pool
	mat  *materialize.Materializer // arena the record was written to
	ref  arena.Ref
}

// Value returns the string.
//
// For UTF-8 pools the result aliases arena memory: it must not be used after
// the pool is reset or freed. Use Clone for a copy that outlives the pool.
func (h *PooledString) Value() (string, error) {
	h.pool.mu.RLock()
	defer h.pool.mu.RUnlock()

	if err := h.check(); err != nil {
		return "", err
	}
	s, err := h.mat.Read(h.ref)
	return s, translateError(err)
}

// Clone returns a heap copy of the string.
func (h *PooledString) Clone() (string, error) {
	h.pool.mu.RLock()
	defer h.pool.mu.RUnlock()

	if err := h.check(); err != nil {
		return "", err
	}
	s, err := h.mat.Read(h.ref)
	if err != nil {
		return "", translateError(err)
	}
	if h.mat.Layout().Encoding == EncodingUTF8 {
		s = strings.Clone(s)
	}
	return s, nil
}

// Len returns the length in encoding units: bytes for UTF-8, code units for UTF-16.
func (h *PooledString) Len() (int, error) {
	h.pool.mu.RLock()
	defer h.pool.mu.RUnlock()

	if err := h.check(); err != nil {
		return 0, err
	}
	n, err := h.mat.Len(h.ref)
	return n, translateError(err)
}

// Valid reports whether the handle can still be read.
func (h *PooledString) Valid() bool {
	h.pool.mu.RLock()
	defer h.pool.mu.RUnlock()

	return h.check() == nil
}

// Offset returns the byte offset of the record header within the arena.
func (h *PooledString) Offset() uint64 {
	return h.ref.Offset
}

// Pool returns the pool the handle belongs to.
func (h *PooledString) Pool() *Pool {
	return h.pool
}

// String returns a heap copy of the string, or "" if the handle is stale.
func (h *PooledString) String() string {
	s, err := h.Clone()
	if err != nil {
		return ""
	}
	return s
}

// check reports whether the record is still live. The caller holds the read lock.
func (h *PooledString) check() error {
	if h.pool.freed || h.mat != h.pool.mat || h.pool.arena.Generation() != h.ref.Gen {
		return ErrStaleHandle
	}
	return nil
}
