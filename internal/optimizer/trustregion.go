package optimizer

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"pmcestimator/domain/estimate"
)

// Trust-region parameters for the derivative-free local refinement stage.
// The reshape objective has no closed-form gradient, so the refiner works
// from successive quadratic models of sampled objective values.
const (
	trInitialRadius = 0.1
	trMinRadius     = 1e-3
	trMaxRadius     = 0.25
	trExpand        = 1.5
	trShrink        = 0.5
	trMaxFun        = 1000
)

// refineLocal polishes a candidate with a BOBYQA-style loop: sample a
// 2n+1 design around the center, fit a separable quadratic model by least
// squares, step to the model optimum within the trust radius and the unit
// cube, and grow or shrink the radius on success or failure. The iteration
// budget bounds worst-case latency; exhausting it returns the best point
// found rather than failing.
func refineLocal(start unitVector, startScore float64, eval func(unitVector) float64) (unitVector, float64, bool) {
	center := start
	centerScore := startScore
	radius := trInitialRadius
	improved := false

	evals := 0
	for radius >= trMinRadius && evals+2*estimate.SliderCount+1 <= trMaxFun {
		deltas, ys := sampleDesign(center, radius, eval)
		evals += len(ys)

		grad, curv, ok := fitQuadratic(deltas, ys)
		if !ok {
			radius *= trShrink
			continue
		}

		step := modelStep(center, grad, curv, radius)
		candidate := clampUnit(addStep(center, step))
		score := eval(candidate)
		evals++

		if score > centerScore {
			center, centerScore = candidate, score
			improved = true
			radius = math.Min(radius*trExpand, trMaxRadius)
		} else {
			radius *= trShrink
		}
	}

	return center, centerScore, improved
}

// sampleDesign evaluates the objective at the center and at +/- radius
// along every axis, clamped to the cube
func sampleDesign(center unitVector, radius float64, eval func(unitVector) float64) ([]unitVector, []float64) {
	n := estimate.SliderCount
	deltas := make([]unitVector, 0, 2*n+1)
	ys := make([]float64, 0, 2*n+1)

	appendPoint := func(d unitVector) {
		p := clampUnit(addStep(center, d))
		// Record the delta actually applied after clamping
		var actual unitVector
		for i := range actual {
			actual[i] = p[i] - center[i]
		}
		deltas = append(deltas, actual)
		ys = append(ys, eval(p))
	}

	appendPoint(unitVector{})
	for dim := 0; dim < n; dim++ {
		var plus, minus unitVector
		plus[dim] = radius
		minus[dim] = -radius
		appendPoint(plus)
		appendPoint(minus)
	}
	return deltas, ys
}

// fitQuadratic solves the separable quadratic model
// m(d) = c + g.d + 0.5 * sum_i h_i d_i^2 by least squares over the design.
// 15 design points determine the 15 coefficients exactly when no clamping
// occurred; clamped designs are still solvable in the least-squares sense.
func fitQuadratic(deltas []unitVector, ys []float64) (grad, curv [estimate.SliderCount]float64, ok bool) {
	n := estimate.SliderCount
	cols := 1 + 2*n
	if len(deltas) < cols {
		return grad, curv, false
	}

	a := mat.NewDense(len(deltas), cols, nil)
	b := mat.NewVecDense(len(deltas), ys)
	for r, d := range deltas {
		a.Set(r, 0, 1)
		for i := 0; i < n; i++ {
			a.Set(r, 1+i, d[i])
			a.Set(r, 1+n+i, 0.5*d[i]*d[i])
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return grad, curv, false
	}

	for i := 0; i < n; i++ {
		grad[i] = coef.AtVec(1 + i)
		curv[i] = coef.AtVec(1 + n + i)
		if math.IsNaN(grad[i]) || math.IsNaN(curv[i]) {
			return grad, curv, false
		}
	}
	return grad, curv, true
}

// modelStep maximizes the separable quadratic model per dimension over the
// intersection of the trust region and the unit cube. With separable terms
// the maximizer is closed-form: an interior stationary point when the
// curvature is concave, otherwise the better endpoint.
func modelStep(center unitVector, grad, curv [estimate.SliderCount]float64, radius float64) unitVector {
	var step unitVector
	for i := range step {
		lo := math.Max(-radius, -center[i])
		hi := math.Min(radius, 1-center[i])

		best, bestVal := lo, quad1D(grad[i], curv[i], lo)
		if v := quad1D(grad[i], curv[i], hi); v > bestVal {
			best, bestVal = hi, v
		}
		if curv[i] < 0 {
			if st := -grad[i] / curv[i]; st > lo && st < hi {
				if v := quad1D(grad[i], curv[i], st); v > bestVal {
					best = st
				}
			}
		}
		step[i] = best
	}
	return step
}

func quad1D(g, h, d float64) float64 {
	return g*d + 0.5*h*d*d
}

func addStep(u unitVector, step unitVector) unitVector {
	for i := range u {
		u[i] += step[i]
	}
	return u
}
