// Package rng is the deterministic float stream every seeded decision in the
// world is drawn from. All state is uint32 with wraparound so the sequence is
// identical on every platform.
package rng

import "unicode/utf16"

const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// Rand is not safe for concurrent use.
type Rand struct {
	state uint32
}

// New hashes seed with FNV-1a folding over its UTF-16 code units.
func New(seed string) *Rand {
	return NewWithBasis(seed, fnvOffset, fnvPrime)
}

// NewWithBasis is New with a caller-chosen offset basis and multiplier, so
// independent streams can be derived from the same seed string.
func NewWithBasis(seed string, basis, prime uint32) *Rand {
	return &Rand{state: HashString(seed, basis, prime)}
}

// HashString folds the UTF-16 code units of seed into basis, FNV-1a style:
// xor each unit, then multiply by prime, all mod 2^32.
func HashString(seed string, basis, prime uint32) uint32 {
	h := basis
	for _, c := range utf16.Encode([]rune(seed)) {
		h = (h ^ uint32(c)) * prime
	}
	return h
}

// Uint32 advances the stream and returns the mixed state.
func (r *Rand) Uint32() uint32 {
	s := r.state
	s = (s ^ (s >> 16)) * 2246822507
	s = (s ^ (s >> 13)) * 3266489909
	s ^= s >> 16
	r.state = s
	return s
}

// Float64 returns a value in [0,1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / 4294967296
}

// Int64 packs two draws, used to seed libraries that take an int64.
func (r *Rand) Int64() int64 {
	hi := uint64(r.Uint32())
	lo := uint64(r.Uint32())
	return int64(hi<<32 | lo)
}

// State exposes the current 32-bit state without advancing.
func (r *Rand) State() uint32 { return r.state }
