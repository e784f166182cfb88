// Package reshape adjusts a baseline distribution under slider input using
// a Gaussian-copula dependency model with a KL divergence guardrail.
package reshape

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"pmcestimator/domain/estimate"
)

// effectSigns encodes how each slider acts on the outcome when raised:
// every lever improves it except reworkPercentage, which works against it.
// Canonical slider order.
var effectSigns = [estimate.SliderCount]float64{1, 1, 1, 1, -1, 1, 1}

var (
	choleskyOnce   sync.Once
	choleskyFactor *mat.TriDense
	choleskyErr    error
)

// correlationCholesky returns the lower Cholesky factor of the fixed slider
// correlation matrix, computed once. The matrix is a compile-time constant,
// so a factorization failure is a programming error.
func correlationCholesky() (*mat.TriDense, error) {
	choleskyOnce.Do(func() {
		corr := estimate.CorrelationMatrix()
		sym := mat.NewSymDense(estimate.SliderCount, nil)
		for i := 0; i < estimate.SliderCount; i++ {
			for j := i; j < estimate.SliderCount; j++ {
				sym.SetSym(i, j, corr[i][j])
			}
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(sym); !ok {
			choleskyErr = fmt.Errorf("slider correlation matrix is not positive definite")
			return
		}
		choleskyFactor = mat.NewTriDense(estimate.SliderCount, mat.Lower, nil)
		chol.LTo(choleskyFactor)
	})
	return choleskyFactor, choleskyErr
}

// latentVector maps normalized slider magnitudes into correlated latent
// normal space: a half-probit per slider (neutral stays at zero), then the
// Cholesky factor injects the fixed dependence structure.
func latentVector(sliders estimate.SliderVector) ([estimate.SliderCount]float64, error) {
	var latent [estimate.SliderCount]float64

	chol, err := correlationCholesky()
	if err != nil {
		return latent, err
	}

	norm := sliders.Normalized()
	var z [estimate.SliderCount]float64
	for i, u := range norm {
		// Fold the magnitude onto [0.5, 1) so probit(0) = 0: a neutral
		// slider contributes nothing to the latent vector
		p := 0.5 + u/2
		if p >= 1 {
			p = 1 - 1e-9
		}
		z[i] = distuv.UnitNormal.Quantile(p)
	}

	for i := 0; i < estimate.SliderCount; i++ {
		sum := 0.0
		for j := 0; j <= i; j++ {
			sum += chol.At(i, j) * z[j]
		}
		latent[i] = sum
	}
	return latent, nil
}

// aggregate collapses the correlated latent vector into a signed directional
// bias (effect-weighted mean) and an unsigned magnitude (RMS).
func aggregate(latent [estimate.SliderCount]float64) (bias, magnitude float64) {
	sumSigned := 0.0
	sumSquares := 0.0
	for i, w := range latent {
		sumSigned += effectSigns[i] * w
		sumSquares += w * w
	}
	bias = sumSigned / estimate.SliderCount
	magnitude = math.Sqrt(sumSquares / estimate.SliderCount)
	return bias, magnitude
}
