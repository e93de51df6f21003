package rng

import (
	"context"
	"fmt"
	"math/rand"

	"cellmap/ports"
)

// seedSpan bounds the per-trial seed values, matching the reference
// implementation's randint(0, 1e6) derivation.
const seedSpan = 1_000_000

// Adapter implements ports.RNGPort with plain seeded math/rand streams.
// math/rand is deterministic for a fixed seed across platforms, which is
// what makes permutation runs bit-reproducible.
type Adapter struct{}

var _ ports.RNGPort = (*Adapter)(nil)

// NewAdapter creates a deterministic RNG adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// TrialSeeds derives the full per-trial seed sequence up front, before any
// parallel dispatch, from the single master seed.
func (a *Adapter) TrialSeeds(ctx context.Context, name string, masterSeed int64, n int) ([]int64, error) {
	if n < 1 {
		return nil, fmt.Errorf("trial seed count must be positive, got %d", n)
	}
	master := rand.New(rand.NewSource(masterSeed))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = master.Int63n(seedSpan)
	}
	return seeds, nil
}
