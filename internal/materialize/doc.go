// Package materialize turns Go strings into self-contained records inside an
// arena and decodes them back.
//
// Materialize follows a fixed sequence under the caller's lock:
//
//  1. measure the string and compute its footprint
//  2. allocate the footprint from the arena (or fail with ErrExhausted, writing nothing)
//  3. copy a header describing the source string into the arena
//  4. copy the payload to the next address-width boundary after the header
//  5. patch the header's payload address to the in-arena payload
//
// Readers decode the header on every access, reject refs from an earlier
// arena generation (ErrStale) and refuse headers whose payload address falls
// outside the arena (ErrCorrupt).
package materialize
