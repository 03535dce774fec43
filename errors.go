package strarena

import (
	"errors"
	"fmt"

	"github.com/hupe1980/strarena/internal/arena"
	"github.com/hupe1980/strarena/internal/layout"
	"github.com/hupe1980/strarena/internal/materialize"
	"github.com/hupe1980/strarena/internal/rawmem"
)

var (
	// ErrExhausted is returned by Get when the arena has no room for the record.
	// The pool stays usable: Reset it, or Fork a fresh one.
	ErrExhausted = errors.New("arena exhausted")

	// ErrInvalidConfig is returned for negative estimates, unknown encodings and
	// estimates whose arena size overflows.
	ErrInvalidConfig = errors.New("invalid pool config")

	// ErrOutOfMemory is returned when the off-heap region cannot be reserved.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrPoolFreed is returned by Get, Reset and Reinit after Free.
	ErrPoolFreed = errors.New("pool freed")

	// ErrStaleHandle is returned when reading a handle whose record was
	// discarded by Reset, Reinit or Free.
	ErrStaleHandle = errors.New("stale handle")

	// ErrStringTooLong is returned for strings whose length does not fit in a
	// record header.
	ErrStringTooLong = errors.New("string too long")

	// ErrCorruptRecord is returned when a record header no longer describes a
	// payload inside the arena.
	ErrCorruptRecord = errors.New("corrupt record")
)

// InitializationError reports a pool that could not be created.
//
// The original underlying error can be accessed via errors.Unwrap.
type InitializationError struct {
	EstimatedCount  int
	EstimatedLength int
	cause           error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("pool initialization failed (estimated count %d, estimated length %d): %v",
		e.EstimatedCount, e.EstimatedLength, e.cause)
}

func (e *InitializationError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already public.
	for _, public := range []error{ErrExhausted, ErrInvalidConfig, ErrOutOfMemory, ErrPoolFreed, ErrStaleHandle, ErrStringTooLong, ErrCorruptRecord} {
		if errors.Is(err, public) {
			return err
		}
	}

	switch {
	case errors.Is(err, arena.ErrExhausted):
		return fmt.Errorf("%w: %w", ErrExhausted, err)
	case errors.Is(err, arena.ErrFreed):
		return fmt.Errorf("%w: %w", ErrPoolFreed, err)
	case errors.Is(err, materialize.ErrStale):
		return fmt.Errorf("%w: %w", ErrStaleHandle, err)
	case errors.Is(err, materialize.ErrTooLong):
		return fmt.Errorf("%w: %w", ErrStringTooLong, err)
	case errors.Is(err, materialize.ErrCorrupt):
		return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	case errors.Is(err, rawmem.ErrOutOfMemory):
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	// Planner and layout rejections.
	for _, invalid := range []error{layout.ErrInvalidEstimate, layout.ErrCapacityOverflow, layout.ErrInvalidLayout, layout.ErrUnknownEncoding} {
		if errors.Is(err, invalid) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	return err
}
