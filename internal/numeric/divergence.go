package numeric

import (
	"fmt"
	"math"

	"pmcestimator/domain/distribution"
)

// klEpsilon floors both densities so log(p/q) never sees a zero
const klEpsilon = 1e-10

// KLDivergence numerically integrates p*log(p/q) over the shared support.
// Both sequences must be sampled at the same x grid.
func KLDivergence(p, q distribution.Points) (float64, error) {
	if len(p) != len(q) {
		return 0, fmt.Errorf("KL divergence requires matching grids: %d vs %d points", len(p), len(q))
	}
	if len(p) < 2 {
		return 0, fmt.Errorf("KL divergence requires at least 2 points, got %d", len(p))
	}

	integrand := make(distribution.Points, len(p))
	for i := range p {
		pi := p[i].Y
		qi := q[i].Y
		if pi < klEpsilon {
			pi = klEpsilon
		}
		if qi < klEpsilon {
			qi = klEpsilon
		}
		integrand[i] = distribution.Point{X: p[i].X, Y: pi * math.Log(pi/qi)}
	}

	kl := Trapezoid(integrand)
	// Numerical integration of floored densities can dip a hair below zero
	if kl < 0 {
		kl = 0
	}
	return kl, nil
}
