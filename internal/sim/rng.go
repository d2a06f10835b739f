package sim

import (
	"golang.org/x/exp/rand"
)

// DeriveSeed returns the seed for the derived stream at the given index.
// The splitmix64 finalizer decorrelates the streams, so nested
// derivations (a per-scenario seed re-derived per retry attempt) land on
// distinct streams instead of overlapping the way plain offsets would.
func DeriveSeed(base uint64, index int) uint64 {
	z := base + 0x9E3779B97F4A7C15*(uint64(index)+1)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// NewRand returns a new generator for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
