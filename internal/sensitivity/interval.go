package sensitivity

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"pmcestimator/domain/distribution"
)

// ConfidenceIntervalFromSamples returns (lower, upper) holding confidence
// mass c between them, with symmetric (1-c)/2 tails on each side.
func ConfidenceIntervalFromSamples(samples []float64, confidence float64) (lower, upper float64, err error) {
	if len(samples) == 0 {
		return 0, 0, fmt.Errorf("confidence interval requires samples")
	}
	if confidence <= 0 || confidence >= 1 {
		return 0, 0, fmt.Errorf("confidence level must be in (0,1), got %v", confidence)
	}

	tail := (1 - confidence) / 2 * 100
	lower, err = stats.Percentile(samples, tail)
	if err != nil {
		return 0, 0, fmt.Errorf("lower percentile: %w", err)
	}
	upper, err = stats.Percentile(samples, 100-tail)
	if err != nil {
		return 0, 0, fmt.Errorf("upper percentile: %w", err)
	}
	return lower, upper, nil
}

// ConfidenceIntervalFromCDF inverts a sampled CDF at the symmetric tail
// quantiles by linear interpolation between bracketing points.
func ConfidenceIntervalFromCDF(cdf distribution.Points, confidence float64) (lower, upper float64, err error) {
	if len(cdf) < 2 {
		return 0, 0, fmt.Errorf("confidence interval requires at least 2 CDF points")
	}
	if confidence <= 0 || confidence >= 1 {
		return 0, 0, fmt.Errorf("confidence level must be in (0,1), got %v", confidence)
	}

	tail := (1 - confidence) / 2
	return quantileFromCDF(cdf, tail), quantileFromCDF(cdf, 1-tail), nil
}

// quantileFromCDF finds x with CDF(x) = q by scanning for the bracketing
// segment; q outside the sampled range clamps to the support edges
func quantileFromCDF(cdf distribution.Points, q float64) float64 {
	if q <= cdf[0].Y {
		return cdf[0].X
	}
	for i := 1; i < len(cdf); i++ {
		if q <= cdf[i].Y {
			x0, y0 := cdf[i-1].X, cdf[i-1].Y
			x1, y1 := cdf[i].X, cdf[i].Y
			if y1 == y0 {
				return x1
			}
			frac := (q - y0) / (y1 - y0)
			return x0 + frac*(x1-x0)
		}
	}
	return cdf[len(cdf)-1].X
}
