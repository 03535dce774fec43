package layout

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

var (
	// ErrInvalidEstimate is returned for negative sizing estimates.
	ErrInvalidEstimate = errors.New("layout: invalid estimate")
	// ErrCapacityOverflow is returned when the computed arena size does not fit in an int.
	ErrCapacityOverflow = errors.New("layout: capacity overflow")
)

// ArenaSize computes how many bytes to reserve for estimatedCount records of
// estimatedLength units each:
//
//	perRecord = header + padding + payloadBase + stride*estimatedLength (+ tail padding)
//	size      = perRecord*estimatedCount + AddressWidth
//
// The trailing AddressWidth bytes absorb alignment of the first record. A zero
// count yields an arena of AddressWidth bytes in which every allocation fails.
func ArenaSize(estimatedCount, estimatedLength int, l Layout) (int, error) {
	if estimatedCount < 0 || estimatedLength < 0 {
		return 0, fmt.Errorf("%w: count=%d length=%d", ErrInvalidEstimate, estimatedCount, estimatedLength)
	}
	if err := l.Validate(); err != nil {
		return 0, err
	}
	if estimatedLength > (math.MaxInt-l.PayloadBase-2*l.AddressWidth-l.HeaderSize)/l.Encoding.Stride() {
		return 0, fmt.Errorf("%w: length=%d", ErrCapacityOverflow, estimatedLength)
	}

	perRecord := uint64(l.Footprint(estimatedLength).Total()) //nolint:gosec // bounded above
	hi, lo := bits.Mul64(perRecord, uint64(estimatedCount))    //nolint:gosec // non-negative
	if hi != 0 || lo > math.MaxInt-uint64(l.AddressWidth) {
		return 0, fmt.Errorf("%w: count=%d length=%d", ErrCapacityOverflow, estimatedCount, estimatedLength)
	}
	return int(lo) + l.AddressWidth, nil //nolint:gosec // checked above
}
