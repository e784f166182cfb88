// Package rng provides the deterministic RNG adapter backing ports.RNGPort.
package rng

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
)

// Adapter derives independent, reproducible rand streams from a base seed
// and stream names. The same (name, seed) pair always yields the same stream.
type Adapter struct{}

// New creates the RNG adapter
func New() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if name == "" {
		return nil, fmt.Errorf("stream name cannot be empty")
	}
	return rand.New(rand.NewSource(mixSeed(name, seed))), nil
}

// Stream creates a deterministic RNG stream for a specific task/stage pair
func (a *Adapter) Stream(ctx context.Context, taskID, stageName string, baseSeed int64) (*rand.Rand, error) {
	if stageName == "" {
		return nil, fmt.Errorf("stage name cannot be empty")
	}
	return a.SeededStream(ctx, taskID+"/"+stageName, baseSeed)
}

// mixSeed folds the stream name into the base seed so differently named
// streams never share a sequence even with identical seeds
func mixSeed(name string, seed int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}
