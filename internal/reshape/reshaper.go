package reshape

import (
	"fmt"
	"math"

	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
	"pmcestimator/internal/numeric"
)

const (
	// KLCeiling bounds how far a reshape may diverge from the baseline.
	// Reshapes past the ceiling are rejected and fall back to the baseline.
	KLCeiling = 1.5

	// maxShiftFraction caps the mean shift as a fraction of the range
	maxShiftFraction = 0.25
	// maxScaleSwing caps how much the spread may tighten or widen
	maxScaleSwing = 0.4

	minScale = 0.5
	maxScale = 1.5
)

// Reshape applies the slider vector to a baseline distribution. Without a
// target the directional bias points toward the optimistic side, since
// raised levers represent managerial room to improve the outcome.
func Reshape(baselinePDF, baselineCDF distribution.Points, est estimate.Estimate,
	sliders estimate.SliderVector, tag estimate.ConfidenceTag) distribution.ReshapedResult {
	return ReshapeToward(baselinePDF, baselineCDF, est, sliders, tag, est.Optimistic)
}

// ReshapeToward reshapes with the shift direction chosen by which side of
// mostLikely the target sits on.
func ReshapeToward(baselinePDF, baselineCDF distribution.Points, est estimate.Estimate,
	sliders estimate.SliderVector, tag estimate.ConfidenceTag, target float64) distribution.ReshapedResult {

	if len(baselinePDF) < 2 || len(baselinePDF) != len(baselineCDF) {
		return errorResult(fmt.Errorf("reshape requires a paired baseline PDF/CDF, got %d/%d points",
			len(baselinePDF), len(baselineCDF)))
	}
	if err := est.Validate(); err != nil {
		return errorResult(err)
	}

	// The optimizer probes aggressively; clamping here keeps its candidate
	// vectors numerically safe. Request-level validation rejects instead.
	sliders = sliders.Clamped()

	mode, feedback := SelectMode(sliders, tag)

	latent, err := latentVector(sliders)
	if err != nil {
		return errorResult(err)
	}
	bias, _ := aggregate(latent)

	direction := -1.0
	if target > est.MostLikely {
		direction = 1.0
	}

	// tanh keeps extreme latent pushes bounded before they become moments
	t := math.Tanh(bias)
	w := weightsByMode[mode]
	shift := direction * math.Abs(t) * w.ShiftGain * maxShiftFraction * est.Range()
	scale := 1 - w.ScaleGain*maxScaleSwing*t
	scale = math.Max(minScale, math.Min(maxScale, scale))

	reshapedPDF, err := shiftScale(baselinePDF, est, shift, scale)
	if err != nil {
		return errorResult(fmt.Errorf("reshape transform: %w", err))
	}

	kl, err := numeric.KLDivergence(reshapedPDF, baselinePDF)
	if err != nil {
		return errorResult(err)
	}
	if kl > KLCeiling {
		return distribution.ReshapedResult{
			PDF:  baselinePDF.Clone(),
			CDF:  baselineCDF.Clone(),
			Mode: distribution.ModeBaselineFallback,
			Feedback: fmt.Sprintf(
				"Slider combination rejected: divergence %.2f exceeds the %.2f ceiling; baseline retained.",
				kl, KLCeiling),
		}
	}

	reshapedCDF := numeric.CumulativeTrapezoid(reshapedPDF)
	applyBoundMass(reshapedCDF, baselineCDF, est, shift, scale)

	return distribution.ReshapedResult{
		PDF:      reshapedPDF,
		CDF:      reshapedCDF,
		Mode:     mode,
		Feedback: feedback,
	}
}

// applyBoundMass folds the probability the transform maps past the support
// bounds back onto them. The outcome cannot leave [optimistic, pessimistic];
// mass pushed outside accumulates at the edges, the same way sampled draws
// clamp, and the CDF carries those atoms.
func applyBoundMass(cdf, baselineCDF distribution.Points, est estimate.Estimate, shift, scale float64) {
	center := est.MostLikely
	n := len(cdf)

	srcLow := center + (cdf[0].X-center-shift)/scale
	srcHigh := center + (cdf[n-1].X-center-shift)/scale
	lowMass := numeric.InterpolateCDF(baselineCDF, srcLow)
	highMass := 1 - numeric.InterpolateCDF(baselineCDF, srcHigh)
	if highMass < 0 {
		highMass = 0
	}
	if lowMass <= 0 && highMass <= 0 {
		return
	}

	interior := 1 - lowMass - highMass
	if interior < 0 {
		interior = 0
	}
	for i := range cdf {
		cdf[i].Y = lowMass + interior*cdf[i].Y
	}
	cdf[n-1].Y = 1
}

// shiftScale resamples the baseline density under x -> center + (x-center)*scale + shift,
// evaluated on the original grid, then renormalizes over the support.
func shiftScale(baselinePDF distribution.Points, est estimate.Estimate, shift, scale float64) (distribution.Points, error) {
	center := est.MostLikely

	out := make(distribution.Points, len(baselinePDF))
	for i, pt := range baselinePDF {
		src := center + (pt.X-center-shift)/scale
		y := numeric.InterpolatePDF(baselinePDF, src) / scale
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("non-finite density at x=%v", pt.X)
		}
		out[i] = distribution.Point{X: pt.X, Y: y}
	}

	return numeric.NormalizePDF(out)
}

func errorResult(err error) distribution.ReshapedResult {
	return distribution.ReshapedResult{
		Mode:     distribution.ModeBaselineFallback,
		Feedback: "Reshape failed: " + err.Error(),
		Err:      err,
	}
}
