// Package optimizer searches slider space for settings that best satisfy a
// target-probability objective, via a layered scout -> surrogate -> prune ->
// local-refinement pipeline with an adaptive chained variant.
package optimizer

import (
	"math/rand"

	"pmcestimator/domain/estimate"
)

// unitVector is a candidate slider setting in the 7-dimensional unit cube.
// UI units are recovered by scaling with the per-slider upper bounds.
type unitVector [estimate.SliderCount]float64

// toSliders scales a unit-cube point into UI units
func (u unitVector) toSliders() estimate.SliderVector {
	bounds := estimate.SliderUpperBounds()
	var vals [estimate.SliderCount]float64
	for i := range vals {
		vals[i] = u[i] * bounds[i]
	}
	return estimate.FromValues(vals)
}

// latinHypercube draws n stratified candidates: each dimension is cut into n
// equal strata, one sample lands in every stratum, and strata are permuted
// independently per dimension. This avoids the clustering of naive uniform
// sampling.
func latinHypercube(n int, rng *rand.Rand) []unitVector {
	if n <= 0 {
		return nil
	}

	samples := make([]unitVector, n)
	for dim := 0; dim < estimate.SliderCount; dim++ {
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			samples[i][dim] = (float64(perm[i]) + rng.Float64()) / float64(n)
		}
	}
	return samples
}

// clampUnit forces a point back into the unit cube
func clampUnit(u unitVector) unitVector {
	for i := range u {
		if u[i] < 0 {
			u[i] = 0
		}
		if u[i] > 1 {
			u[i] = 1
		}
	}
	return u
}
