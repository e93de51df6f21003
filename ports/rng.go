package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// TrialSeeds derives the per-trial seed sequence for a permutation run
	// from a master seed. Trial i always consumes seeds[i] regardless of
	// which worker executes it, so results are scheduling-independent.
	TrialSeeds(ctx context.Context, name string, masterSeed int64, n int) ([]int64, error)
}
