package layout

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Header is the decoded form of a record header.
type Header struct {
	Payload  uint64 // address of the payload
	Length   uint32 // length in encoding units
	Version  uint8
	Encoding Encoding
}

// MaxUnits is the largest length a header can describe.
const MaxUnits = math.MaxUint32

// Encode writes h into the first HeaderSize bytes of dst.
func (h Header) Encode(dst []byte) error {
	if len(dst) < HeaderSize {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint64(dst[PayloadField:], h.Payload)
	binary.LittleEndian.PutUint32(dst[lengthField:], h.Length)
	dst[versionField] = h.Version
	dst[encodingField] = byte(h.Encoding)
	dst[14], dst[15] = 0, 0
	return nil
}

// DecodeHeader decodes a version 1 header from src.
func DecodeHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, ErrShortBuffer
	}
	h := Header{
		Payload:  binary.LittleEndian.Uint64(src[PayloadField:]),
		Length:   binary.LittleEndian.Uint32(src[lengthField:]),
		Version:  src[versionField],
		Encoding: Encoding(src[encodingField]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, h.Version, Version)
	}
	if h.Encoding.Stride() == 0 {
		return Header{}, fmt.Errorf("%w: %d", ErrUnknownEncoding, uint8(h.Encoding))
	}
	return h, nil
}
