// Package testutil provides testing utilities for strarena.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for string workloads.
//
// # Random Strings
//
//	rng := testutil.NewRNG(seed)
//	s := rng.ASCII(16)           // printable ASCII
//	u := rng.Unicode(16)         // mixed 1-4 byte runes, including astral planes
//	ws := rng.Strings(100, 0, 32) // 100 ASCII strings of length [0, 32]
package testutil
