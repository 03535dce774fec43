// Package layout defines the on-arena record format for pooled strings and
// the capacity planner that sizes an arena up front.
//
// # Record Format (version 1)
//
// Every record starts with a header aligned to the address width:
//
//	offset  size  field
//	0       8     payload address (arena offset of the payload)
//	8       4     length in encoding units
//	12      1     layout version
//	13      1     encoding (1 = UTF-8, 2 = UTF-16LE)
//	14      2     reserved
//
// The payload follows at the next address-width boundary. Records are padded
// to a multiple of the address width so consecutive records pack without gaps.
//
// # Encodings
//
// UTF-8 payloads are the raw string bytes and decode without copying. UTF-16
// payloads store little-endian code units (stride 2) and decode into a new
// heap string.
package layout
