package testutil

import (
	"math/rand"
	"strings"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// ASCII returns a string of n printable ASCII bytes.
func (r *RNG) ASCII(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ascii(n)
}

func (r *RNG) ascii(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		sb.WriteByte(byte(' ' + r.rand.Intn('~'-' '+1)))
	}
	return sb.String()
}

// unicodeRanges cover 1, 2, 3 and 4 byte UTF-8 encodings. Surrogates are excluded.
var unicodeRanges = [][2]rune{
	{0x20, 0x7E},
	{0xA1, 0x7FF},
	{0x800, 0xD7FF},
	{0xE000, 0xFFFD},
	{0x10000, 0x1F9FF},
}

// Unicode returns a string of n runes drawn evenly from the 1-4 byte UTF-8
// ranges, so roughly one rune in five needs a UTF-16 surrogate pair.
func (r *RNG) Unicode(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	for range n {
		rg := unicodeRanges[r.rand.Intn(len(unicodeRanges))]
		sb.WriteRune(rg[0] + rune(r.rand.Intn(int(rg[1]-rg[0]+1))))
	}
	return sb.String()
}

// Strings returns count ASCII strings with lengths in [minLen, maxLen].
func (r *RNG) Strings(count, minLen, maxLen int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, count)
	for i := range out {
		out[i] = r.ascii(minLen + r.rand.Intn(maxLen-minLen+1))
	}
	return out
}
