package numeric

import (
	"fmt"
	"math"

	"pmcestimator/domain/distribution"
)

// Trapezoid integrates a sampled curve over its full x span
func Trapezoid(points distribution.Points) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		total += dx * (points[i].Y + points[i-1].Y) / 2
	}
	return total
}

// CumulativeTrapezoid produces the running trapezoidal integral of a PDF,
// clipped into [0, 1] so it is directly usable as a CDF.
func CumulativeTrapezoid(pdf distribution.Points) distribution.Points {
	cdf := make(distribution.Points, len(pdf))
	running := 0.0
	for i, pt := range pdf {
		if i > 0 {
			dx := pt.X - pdf[i-1].X
			running += dx * (pt.Y + pdf[i-1].Y) / 2
		}
		y := running
		if y < 0 {
			y = 0
		}
		if y > 1 {
			y = 1
		}
		cdf[i] = distribution.Point{X: pt.X, Y: y}
	}
	return cdf
}

// NormalizePDF rescales a sampled density so it integrates to 1.
// Returns an error when the mass is non-positive or non-finite, which is
// how degenerate shapes surface instead of propagating NaN downstream.
func NormalizePDF(pdf distribution.Points) (distribution.Points, error) {
	mass := Trapezoid(pdf)
	if math.IsNaN(mass) || math.IsInf(mass, 0) || mass <= 0 {
		return nil, fmt.Errorf("cannot normalize density with mass %v", mass)
	}

	out := make(distribution.Points, len(pdf))
	for i, pt := range pdf {
		y := pt.Y / mass
		if y < 0 {
			y = 0
		}
		out[i] = distribution.Point{X: pt.X, Y: y}
	}
	return out, nil
}

// InterpolateCDF linearly interpolates a CDF at x, clamping to 0 below the
// support and 1 above it.
func InterpolateCDF(cdf distribution.Points, x float64) float64 {
	if len(cdf) == 0 {
		return 0
	}
	if x <= cdf[0].X {
		if x < cdf[0].X {
			return 0
		}
		return cdf[0].Y
	}
	last := cdf[len(cdf)-1]
	if x >= last.X {
		if x > last.X {
			return 1
		}
		return last.Y
	}

	for i := 1; i < len(cdf); i++ {
		if x <= cdf[i].X {
			x0, y0 := cdf[i-1].X, cdf[i-1].Y
			x1, y1 := cdf[i].X, cdf[i].Y
			if x1 == x0 {
				return y1
			}
			frac := (x - x0) / (x1 - x0)
			return y0 + frac*(y1-y0)
		}
	}
	return last.Y
}

// InterpolatePDF linearly interpolates a sampled density at x; outside the
// sampled support the density is zero.
func InterpolatePDF(pdf distribution.Points, x float64) float64 {
	if len(pdf) == 0 || x < pdf[0].X || x > pdf[len(pdf)-1].X {
		return 0
	}
	for i := 1; i < len(pdf); i++ {
		if x <= pdf[i].X {
			x0, y0 := pdf[i-1].X, pdf[i-1].Y
			x1, y1 := pdf[i].X, pdf[i].Y
			if x1 == x0 {
				return y1
			}
			frac := (x - x0) / (x1 - x0)
			return y0 + frac*(y1-y0)
		}
	}
	return pdf[len(pdf)-1].Y
}

// Linspace returns n evenly spaced values across [lo, hi] inclusive
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
