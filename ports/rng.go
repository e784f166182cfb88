package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream for a specific task/stage pair.
	// This ensures Monte Carlo draws and scout sampling reproduce exactly for
	// the same task and base seed.
	Stream(ctx context.Context, taskID, stageName string, baseSeed int64) (*rand.Rand, error)
}
