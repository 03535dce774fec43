package materialize

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/strarena/internal/arena"
	"github.com/hupe1980/strarena/internal/layout"
)

var (
	// ErrTooLong is returned for strings whose length does not fit in a header.
	ErrTooLong = errors.New("materialize: string too long")
	// ErrStale is returned when a ref belongs to an earlier generation of the arena.
	ErrStale = errors.New("materialize: stale reference")
	// ErrCorrupt is returned when a record header does not describe an in-arena payload.
	ErrCorrupt = errors.New("materialize: corrupt record")
)

// Materializer copies strings into an arena as self-contained records.
//
// It is not safe for concurrent use; callers serialize Materialize with
// each other and with Reset/Free of the arena.
type Materializer struct {
	arena   *arena.Arena
	layout  layout.Layout
	staging []byte // header scratch, reused across calls
}

// New creates a Materializer writing records in layout l.
func New(a *arena.Arena, l layout.Layout) (*Materializer, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &Materializer{
		arena:   a,
		layout:  l,
		staging: make([]byte, l.HeaderSize),
	}, nil
}

// Layout returns the record layout.
func (m *Materializer) Layout() layout.Layout {
	return m.layout
}

// Footprint returns the number of units in s and the record footprint.
func (m *Materializer) Footprint(s string) (int, layout.Footprint, error) {
	units := m.layout.Units(s)
	if uint64(units) > layout.MaxUnits {
		return 0, layout.Footprint{}, fmt.Errorf("%w: %d units", ErrTooLong, units)
	}
	return units, m.layout.Footprint(units), nil
}

// Materialize copies s into the arena and returns a reference to its header.
//
// The header is first written as a copy of the source description, with the
// payload address still pointing at the source string. Only after the payload
// is in place is that field patched to the in-arena payload. If the arena is
// exhausted nothing is written and arena.ErrExhausted is returned.
func (m *Materializer) Materialize(s string) (arena.Ref, error) {
	units, fp, err := m.Footprint(s)
	if err != nil {
		return arena.Ref{}, err
	}

	ref, err := m.arena.Allocate(fp.Total(), m.layout.AddressWidth)
	if err != nil {
		return arena.Ref{}, err
	}
	dest := ref.Offset

	src := layout.Header{
		Payload:  sourceAddress(s),
		Length:   uint32(units), //nolint:gosec // bounded by MaxUnits
		Version:  layout.Version,
		Encoding: m.layout.Encoding,
	}
	clear(m.staging)
	if err := src.Encode(m.staging); err != nil {
		return arena.Ref{}, err
	}
	if err := m.arena.Copy(dest, m.staging); err != nil {
		return arena.Ref{}, fmt.Errorf("%w: copy header: %w", ErrCorrupt, err)
	}

	payloadAt := layout.AlignUp64(dest+uint64(m.layout.HeaderSize), uint64(m.layout.AddressWidth))
	payload, err := m.arena.Bytes(payloadAt, fp.PayloadSize)
	if err != nil {
		return arena.Ref{}, fmt.Errorf("%w: payload window: %w", ErrCorrupt, err)
	}
	if err := m.layout.EncodePayload(payload, s); err != nil {
		return arena.Ref{}, fmt.Errorf("%w: copy payload: %w", ErrCorrupt, err)
	}

	if err := m.arena.WriteAddress(dest+layout.PayloadField, payloadAt); err != nil {
		return arena.Ref{}, fmt.Errorf("%w: patch payload address: %w", ErrCorrupt, err)
	}
	return ref, nil
}

// Header decodes and validates the header of the record at ref.
func (m *Materializer) Header(ref arena.Ref) (layout.Header, error) {
	if !m.arena.Valid(ref) {
		return layout.Header{}, ErrStale
	}
	raw, err := m.arena.Bytes(ref.Offset, m.layout.HeaderSize)
	if err != nil {
		return layout.Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	h, err := layout.DecodeHeader(raw)
	if err != nil {
		return layout.Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	_, end := m.arena.Bounds()
	lo := ref.Offset + uint64(m.layout.HeaderSize)
	size := uint64(m.layout.PayloadSize(int(h.Length)))
	if h.Encoding != m.layout.Encoding || h.Payload < lo || h.Payload > end || size > end-h.Payload {
		return layout.Header{}, fmt.Errorf("%w: payload at %d outside [%d, %d)", ErrCorrupt, h.Payload, lo, end)
	}
	return h, nil
}

// Read decodes the string stored at ref.
//
// With UTF-8 layouts the returned string aliases arena memory and is valid
// only until the arena is reset or freed.
func (m *Materializer) Read(ref arena.Ref) (string, error) {
	h, err := m.Header(ref)
	if err != nil {
		return "", err
	}
	payload, err := m.arena.Bytes(h.Payload, m.layout.PayloadSize(int(h.Length)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return m.layout.DecodePayload(payload, int(h.Length))
}

// Len returns the length of the record at ref in encoding units.
func (m *Materializer) Len(ref arena.Ref) (int, error) {
	h, err := m.Header(ref)
	if err != nil {
		return 0, err
	}
	return int(h.Length), nil
}

// sourceAddress is the address of the source payload, recorded in the staging
// header until the copy is patched.
func sourceAddress(s string) uint64 {
	return uint64(uintptr(unsafe.Pointer(unsafe.StringData(s)))) //nolint:gosec // address is recorded, never dereferenced
}
