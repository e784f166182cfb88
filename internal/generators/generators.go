// Package generators produces baseline PDF/CDF point sequences for the
// supported distribution families from a three-point estimate.
package generators

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"pmcestimator/domain/core"
	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
	"pmcestimator/internal/numeric"
)

const (
	// MinSamples and MaxSamples bound the Monte Carlo draw count
	MinSamples     = 1000
	MaxSamples     = 10000
	defaultSamples = 5000
)

// Result bundles a generated baseline. Samples is populated only for the
// Monte Carlo families so interval helpers can work from raw draws.
type Result struct {
	PDF     distribution.Points
	CDF     distribution.Points
	Samples []float64
}

// Generate produces the baseline for the requested family. numSamples is
// ignored for the closed-form families; rng is required for Monte Carlo.
func Generate(est estimate.Estimate, typ distribution.DistributionType, numSamples int, rng *rand.Rand) (Result, error) {
	if err := est.Validate(); err != nil {
		return Result{}, err
	}

	switch typ {
	case distribution.Triangular:
		pdf, cdf, err := triangular(est, distribution.DefaultPointCount)
		return Result{PDF: pdf, CDF: cdf}, err
	case distribution.PERTBeta:
		pdf, cdf, err := pertBeta(est, distribution.DefaultPointCount)
		return Result{PDF: pdf, CDF: cdf}, err
	case distribution.MonteCarloRaw:
		return monteCarlo(est, numSamples, rng, false)
	case distribution.MonteCarloSmoothed:
		return monteCarlo(est, numSamples, rng, true)
	default:
		return Result{}, fmt.Errorf("unknown distribution type %q", typ)
	}
}

// triangular evaluates the closed-form piecewise-linear density with its
// peak at mostLikely, then integrates for the CDF.
func triangular(est estimate.Estimate, n int) (distribution.Points, distribution.Points, error) {
	o, m, p := est.Optimistic, est.MostLikely, est.Pessimistic
	span := p - o

	pdf := make(distribution.Points, n)
	for i, x := range numeric.Linspace(o, p, n) {
		var y float64
		switch {
		case x < m && m > o:
			y = 2 * (x - o) / (span * (m - o))
		case x > m && m < p:
			y = 2 * (p - x) / (span * (p - m))
		default:
			// At the peak (or a degenerate edge peak) the density is 2/span
			y = 2 / span
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, nil, core.NewNonFiniteError("triangular density", y)
		}
		pdf[i] = distribution.Point{X: x, Y: y}
	}

	normalized, err := numeric.NormalizePDF(pdf)
	if err != nil {
		return nil, nil, fmt.Errorf("triangular baseline: %w", err)
	}
	return normalized, numeric.CumulativeTrapezoid(normalized), nil
}

// pertBeta maps the estimate onto Beta(alpha, beta) via the PERT moment
// equations and evaluates the density over [optimistic, pessimistic].
func pertBeta(est estimate.Estimate, n int) (distribution.Points, distribution.Points, error) {
	alpha, beta, err := PERTShape(est)
	if err != nil {
		return nil, nil, err
	}

	o, p := est.Optimistic, est.Pessimistic
	span := p - o

	pdf := make(distribution.Points, n)
	for i, x := range numeric.Linspace(o, p, n) {
		u := (x - o) / span
		density, err := numeric.BetaPDF(u, alpha, beta)
		if err != nil {
			return nil, nil, fmt.Errorf("pert baseline at x=%v: %w", x, err)
		}
		pdf[i] = distribution.Point{X: x, Y: density / span}
	}

	normalized, err := numeric.NormalizePDF(pdf)
	if err != nil {
		return nil, nil, fmt.Errorf("pert baseline: %w", err)
	}
	return normalized, numeric.CumulativeTrapezoid(normalized), nil
}

// PERTShape solves the Beta shape parameters from the PERT mean and the
// ((P-O)/6)^2 variance on the normalized [0,1] support.
func PERTShape(est estimate.Estimate) (alpha, beta float64, err error) {
	span := est.Range()
	if span <= 0 {
		return 0, 0, fmt.Errorf("%w: span %v", core.ErrDegenerateRange, span)
	}

	mean := (est.Mean() - est.Optimistic) / span
	variance := 1.0 / 36.0 // ((P-O)/6)^2 normalized by span^2

	common := mean*(1-mean)/variance - 1
	alpha = mean * common
	beta = (1 - mean) * common

	if math.IsNaN(alpha) || math.IsNaN(beta) || alpha <= 0 || beta <= 0 {
		return 0, 0, fmt.Errorf("%w: PERT shape alpha=%v beta=%v from estimate (%v, %v, %v)",
			core.ErrDegenerateParams, alpha, beta, est.Optimistic, est.MostLikely, est.Pessimistic)
	}
	return alpha, beta, nil
}

// monteCarlo draws numSamples from a normal at the PERT mean/stddev via a
// Box-Muller transform (a deliberate approximation of beta sampling, kept
// for contract fidelity), clamps to the support, and bins the draws.
// Raw mode bins at full point resolution; smoothed mode uses coarse bins
// with bin-center points.
func monteCarlo(est estimate.Estimate, numSamples int, rng *rand.Rand, smoothed bool) (Result, error) {
	if rng == nil {
		return Result{}, fmt.Errorf("monte carlo generation requires a seeded RNG stream")
	}
	if numSamples <= 0 {
		numSamples = defaultSamples
	}
	if numSamples < MinSamples {
		numSamples = MinSamples
	}
	if numSamples > MaxSamples {
		numSamples = MaxSamples
	}

	mean, stddev := est.Mean(), est.StdDev()
	samples := make([]float64, numSamples)
	for i := 0; i < numSamples; i += 2 {
		z0, z1 := boxMuller(rng)
		samples[i] = clampToSupport(mean+stddev*z0, est)
		if i+1 < numSamples {
			samples[i+1] = clampToSupport(mean+stddev*z1, est)
		}
	}

	bins := 30
	binCenters := true
	if !smoothed {
		// One fewer bin than the point count: the closing support edge
		// brings the sequence back to exactly DefaultPointCount points
		bins = distribution.DefaultPointCount - 1
		binCenters = false
	}

	pdf, err := histogramDensity(samples, est, bins, binCenters)
	if err != nil {
		return Result{}, err
	}

	// Raw mode reads the CDF straight off the draws: clamped samples sitting
	// exactly on a support bound keep their mass there, which a trapezoidal
	// integral of the binned density would zero out. Smoothed mode stays a
	// bin-center interior view and integrates the density instead.
	cdf := numeric.CumulativeTrapezoid(pdf)
	if !smoothed {
		cdf = empiricalCDF(samples, pdf)
	}
	return Result{PDF: pdf, CDF: cdf, Samples: samples}, nil
}

// empiricalCDF evaluates the sample ECDF at the PDF grid points
func empiricalCDF(samples []float64, grid distribution.Points) distribution.Points {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	cdf := make(distribution.Points, len(grid))
	for i, pt := range grid {
		count := sort.Search(len(sorted), func(k int) bool { return sorted[k] > pt.X })
		cdf[i] = distribution.Point{X: pt.X, Y: float64(count) / n}
	}
	return cdf
}

// boxMuller converts two uniform draws into two independent standard normals
func boxMuller(rng *rand.Rand) (float64, float64) {
	u1 := rng.Float64()
	u2 := rng.Float64()
	for u1 <= 1e-300 {
		u1 = rng.Float64()
	}
	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	return r * math.Cos(theta), r * math.Sin(theta)
}

func clampToSupport(x float64, est estimate.Estimate) float64 {
	return math.Max(est.Optimistic, math.Min(est.Pessimistic, x))
}

// histogramDensity bins samples over the support and converts counts to a
// density by count/(N*binWidth). With binCenters, points sit at bin
// midpoints; otherwise at left edges plus a terminal right edge.
func histogramDensity(samples []float64, est estimate.Estimate, bins int, binCenters bool) (distribution.Points, error) {
	span := est.Range()
	binWidth := span / float64(bins)
	counts := make([]int, bins)
	for _, s := range samples {
		idx := int((s - est.Optimistic) / binWidth)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	n := float64(len(samples))
	pdf := make(distribution.Points, 0, bins+1)
	for i, c := range counts {
		density := float64(c) / (n * binWidth)
		if math.IsNaN(density) || math.IsInf(density, 0) {
			return nil, core.NewNonFiniteError("histogram density", density)
		}
		x := est.Optimistic + float64(i)*binWidth
		if binCenters {
			x += binWidth / 2
		}
		pdf = append(pdf, distribution.Point{X: x, Y: density})
	}
	if !binCenters {
		// Close the support so the CDF reaches the pessimistic edge
		pdf = append(pdf, distribution.Point{X: est.Pessimistic, Y: pdf[len(pdf)-1].Y})
	}

	normalized, err := numeric.NormalizePDF(pdf)
	if err != nil {
		return nil, fmt.Errorf("monte carlo baseline: %w", err)
	}
	return normalized, nil
}
