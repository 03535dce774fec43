package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unsafe"
)

const (
	// AddressWidth is the width of an address field in the record layout (8 bytes).
	AddressWidth = 8
	// HeaderSize is the default size of a record header.
	HeaderSize = 16
	// Version is the current record layout version.
	Version uint8 = 1
)

// Header field offsets.
const (
	PayloadField  = 0
	lengthField   = 8
	versionField  = 12
	encodingField = 13
)

var (
	// ErrInvalidLayout is returned when a layout cannot hold a record header.
	ErrInvalidLayout = errors.New("layout: invalid layout")
	// ErrUnknownEncoding is returned for an encoding that has no codec.
	ErrUnknownEncoding = errors.New("layout: unknown encoding")
	// ErrVersionMismatch is returned when a header carries an unexpected layout version.
	ErrVersionMismatch = errors.New("layout: version mismatch")
	// ErrShortBuffer is returned when a buffer is too small for a header or payload.
	ErrShortBuffer = errors.New("layout: short buffer")
)

// Encoding selects how string payloads are stored in the arena.
type Encoding uint8

const (
	// UTF8 stores the string bytes unchanged (stride 1).
	UTF8 Encoding = iota + 1
	// UTF16 stores little-endian UTF-16 code units (stride 2).
	UTF16
)

// Stride returns the element stride in bytes, or 0 for unknown encodings.
func (e Encoding) Stride() int {
	switch e {
	case UTF8:
		return 1
	case UTF16:
		return 2
	default:
		return 0
	}
}

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf8"
	case UTF16:
		return "utf16"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// ParseEncoding parses an encoding name ("utf8", "utf-8", "utf16", "utf-16").
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "utf8", "utf-8":
		return UTF8, nil
	case "utf16", "utf-16", "utf16le", "utf-16le":
		return UTF16, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Encoding) MarshalText() ([]byte, error) {
	if e.Stride() == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEncoding, uint8(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Encoding) UnmarshalText(text []byte) error {
	enc, err := ParseEncoding(string(text))
	if err != nil {
		return err
	}
	*e = enc
	return nil
}

// Layout describes how a string record is laid out in arena memory.
type Layout struct {
	Encoding     Encoding
	HeaderSize   int
	PayloadBase  int // reserved bytes in front of the payload elements
	AddressWidth int
}

// For returns the default layout for the given encoding.
func For(enc Encoding) Layout {
	return Layout{
		Encoding:     enc,
		HeaderSize:   HeaderSize,
		AddressWidth: AddressWidth,
	}
}

// Validate checks that the layout can hold a version 1 header.
func (l Layout) Validate() error {
	if l.Encoding.Stride() == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownEncoding, uint8(l.Encoding))
	}
	if l.HeaderSize < HeaderSize {
		return fmt.Errorf("%w: header size %d < %d", ErrInvalidLayout, l.HeaderSize, HeaderSize)
	}
	if l.PayloadBase < 0 {
		return fmt.Errorf("%w: negative payload base %d", ErrInvalidLayout, l.PayloadBase)
	}
	if l.AddressWidth < AddressWidth || l.AddressWidth&(l.AddressWidth-1) != 0 {
		return fmt.Errorf("%w: address width %d", ErrInvalidLayout, l.AddressWidth)
	}
	return nil
}

// Units returns the number of encoding units needed to store s.
func (l Layout) Units(s string) int {
	if l.Encoding != UTF16 {
		return len(s)
	}
	// Ranging over a string yields utf8.RuneError for invalid bytes, so
	// RuneLen never reports -1 here.
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// PayloadSize returns the payload size in bytes for the given number of units.
func (l Layout) PayloadSize(units int) int {
	return l.PayloadBase + l.Encoding.Stride()*units
}

// Footprint is the arena footprint of one record.
type Footprint struct {
	HeaderSize  int
	Padding     int // between header and payload
	PayloadSize int
	TailPadding int // rounds the record up to the address width
}

// Total returns the number of bytes the record occupies.
func (f Footprint) Total() int {
	return f.HeaderSize + f.Padding + f.PayloadSize + f.TailPadding
}

// PayloadOffset returns the payload offset relative to an aligned header.
func (f Footprint) PayloadOffset() int {
	return f.HeaderSize + f.Padding
}

// Footprint computes the footprint of a record holding units elements.
func (l Layout) Footprint(units int) Footprint {
	payload := l.PayloadSize(units)
	return Footprint{
		HeaderSize:  l.HeaderSize,
		Padding:     AlignUp(l.HeaderSize, l.AddressWidth) - l.HeaderSize,
		PayloadSize: payload,
		TailPadding: AlignUp(payload, l.AddressWidth) - payload,
	}
}

// EncodePayload writes s into dst, which must be PayloadSize(Units(s)) bytes long.
func (l Layout) EncodePayload(dst []byte, s string) error {
	units := l.Units(s)
	if len(dst) < l.PayloadSize(units) {
		return ErrShortBuffer
	}
	clear(dst[:l.PayloadBase])
	dst = dst[l.PayloadBase:]

	if l.Encoding != UTF16 {
		copy(dst, s)
		return nil
	}
	i := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			hi, lo := utf16.EncodeRune(r)
			binary.LittleEndian.PutUint16(dst[i:], uint16(hi))
			binary.LittleEndian.PutUint16(dst[i+2:], uint16(lo))
			i += 4
			continue
		}
		binary.LittleEndian.PutUint16(dst[i:], uint16(r))
		i += 2
	}
	return nil
}

// DecodePayload decodes units elements from src.
//
// UTF-8 payloads are returned without copying: the string aliases src and is
// only valid for as long as the bytes behind src are.
func (l Layout) DecodePayload(src []byte, units int) (string, error) {
	size := l.PayloadSize(units)
	if len(src) < size {
		return "", ErrShortBuffer
	}
	src = src[l.PayloadBase:size]
	if units == 0 {
		return "", nil
	}

	if l.Encoding != UTF16 {
		return unsafe.String(&src[0], units), nil //nolint:gosec // payload aliases arena memory
	}
	codes := make([]uint16, units)
	for i := range codes {
		codes[i] = binary.LittleEndian.Uint16(src[2*i:])
	}
	return string(utf16.Decode(codes)), nil
}

// AlignUp rounds n up to the next multiple of align (a power of two).
func AlignUp(n, align int) int {
	mask := align - 1
	return (n + mask) &^ mask
}

// AlignUp64 rounds n up to the next multiple of align (a power of two).
func AlignUp64(n, align uint64) uint64 {
	mask := align - 1
	return (n + mask) &^ mask
}
