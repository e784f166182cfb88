package numeric

import (
	"math"
	"testing"

	"pmcestimator/domain/distribution"
)

// TestGammaKnownValues checks the Lanczos approximation against exact values
func TestGammaKnownValues(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 6},
		{5, 24},
		{0.5, math.Sqrt(math.Pi)},
		{1.5, 0.5 * math.Sqrt(math.Pi)},
		{0.25, 3.6256099082219083}, // exercises the reflection branch
	}

	for _, tt := range tests {
		got := Gamma(tt.x)
		if math.Abs(got-tt.want)/tt.want > 1e-10 {
			t.Errorf("Gamma(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

// TestGammaAgainstStdlib sweeps the slider-reachable shape range
func TestGammaAgainstStdlib(t *testing.T) {
	for x := 0.1; x < 40; x += 0.37 {
		got := Gamma(x)
		want := math.Gamma(x)
		if math.Abs(got-want)/want > 1e-9 {
			t.Errorf("Gamma(%v) = %v, stdlib says %v", x, got, want)
		}
	}
}

// TestLogGammaLargeArguments verifies LogGamma survives where Gamma overflows
func TestLogGammaLargeArguments(t *testing.T) {
	for _, x := range []float64{50, 170, 500, 1000} {
		got := LogGamma(x)
		want, _ := math.Lgamma(x)
		if math.Abs(got-want)/want > 1e-9 {
			t.Errorf("LogGamma(%v) = %v, stdlib says %v", x, got, want)
		}
		if math.IsInf(got, 0) || math.IsNaN(got) {
			t.Errorf("LogGamma(%v) is non-finite", x)
		}
	}
}

// TestBetaPDFIntegratesToOne checks several shapes integrate to ~1
func TestBetaPDFIntegratesToOne(t *testing.T) {
	shapes := []struct{ alpha, beta float64 }{
		{2, 2},
		{3, 5},
		{1.2, 6.8},
		{4, 4},
	}

	for _, s := range shapes {
		xs := Linspace(0, 1, 2001)
		pdf := make(distribution.Points, len(xs))
		for i, x := range xs {
			y, err := BetaPDF(x, s.alpha, s.beta)
			if err != nil {
				t.Fatalf("BetaPDF(%v, %v, %v): %v", x, s.alpha, s.beta, err)
			}
			pdf[i] = distribution.Point{X: x, Y: y}
		}

		mass := Trapezoid(pdf)
		if math.Abs(mass-1) > 1e-3 {
			t.Errorf("Beta(%v,%v) mass = %v, want ~1", s.alpha, s.beta, mass)
		}
	}
}

// TestBetaPDFRejectsDegenerateShapes verifies explicit errors, not NaN
func TestBetaPDFRejectsDegenerateShapes(t *testing.T) {
	cases := []struct{ alpha, beta float64 }{
		{0, 2},
		{-1, 2},
		{2, math.NaN()},
		{math.Inf(1), 2},
	}
	for _, c := range cases {
		if _, err := BetaPDF(0.5, c.alpha, c.beta); err == nil {
			t.Errorf("BetaPDF with alpha=%v beta=%v should error", c.alpha, c.beta)
		}
	}
}

func TestCumulativeTrapezoidIsMonotone(t *testing.T) {
	xs := Linspace(0, 10, 100)
	pdf := make(distribution.Points, len(xs))
	for i, x := range xs {
		pdf[i] = distribution.Point{X: x, Y: 0.1} // uniform density on [0,10]
	}

	cdf := CumulativeTrapezoid(pdf)
	prev := -1.0
	for i, pt := range cdf {
		if pt.Y < prev {
			t.Fatalf("CDF decreased at index %d: %v < %v", i, pt.Y, prev)
		}
		prev = pt.Y
	}
	if math.Abs(cdf[len(cdf)-1].Y-1) > 1e-6 {
		t.Errorf("CDF should end at ~1, got %v", cdf[len(cdf)-1].Y)
	}
}

func TestInterpolateCDFClamping(t *testing.T) {
	cdf := distribution.Points{{X: 10, Y: 0}, {X: 20, Y: 0.5}, {X: 30, Y: 1}}

	if got := InterpolateCDF(cdf, 5); got != 0 {
		t.Errorf("below support should clamp to 0, got %v", got)
	}
	if got := InterpolateCDF(cdf, 35); got != 1 {
		t.Errorf("above support should clamp to 1, got %v", got)
	}
	if got := InterpolateCDF(cdf, 15); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("midpoint interpolation wrong: got %v, want 0.25", got)
	}
	if got := InterpolateCDF(cdf, 20); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("exact knot should return its y: got %v", got)
	}
}

func TestKLDivergence(t *testing.T) {
	xs := Linspace(0, 1, 200)
	p := make(distribution.Points, len(xs))
	q := make(distribution.Points, len(xs))
	r := make(distribution.Points, len(xs))
	for i, x := range xs {
		p[i] = distribution.Point{X: x, Y: 1}
		q[i] = distribution.Point{X: x, Y: 1}
		// A clearly different, still-normalized density
		r[i] = distribution.Point{X: x, Y: 2 * x}
	}

	same, err := KLDivergence(p, q)
	if err != nil {
		t.Fatalf("KL(p,p): %v", err)
	}
	if same > 1e-9 {
		t.Errorf("KL of identical densities should be ~0, got %v", same)
	}

	diff, err := KLDivergence(p, r)
	if err != nil {
		t.Fatalf("KL(p,r): %v", err)
	}
	if diff <= 0 {
		t.Errorf("KL of different densities should be positive, got %v", diff)
	}

	if _, err := KLDivergence(p, q[:50]); err == nil {
		t.Error("mismatched grids should error")
	}
}
