package optimizer

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
	"pmcestimator/internal/generators"
	"pmcestimator/internal/numeric"
)

func testRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func baselineFor(t *testing.T, est estimate.Estimate) (distribution.Points, distribution.Points) {
	t.Helper()
	res, err := generators.Generate(est, distribution.PERTBeta, 0, nil)
	if err != nil {
		t.Fatalf("baseline generation: %v", err)
	}
	return res.PDF, res.CDF
}

func TestLatinHypercubeStratification(t *testing.T) {
	const n = 20
	samples := latinHypercube(n, testRNG(1))
	if len(samples) != n {
		t.Fatalf("expected %d samples, got %d", n, len(samples))
	}

	// Every dimension must place exactly one sample per stratum
	for dim := 0; dim < estimate.SliderCount; dim++ {
		seen := make([]bool, n)
		for _, s := range samples {
			if s[dim] < 0 || s[dim] >= 1 {
				t.Fatalf("sample outside unit interval: %v", s[dim])
			}
			stratum := int(s[dim] * n)
			if seen[stratum] {
				t.Errorf("dimension %d has two samples in stratum %d", dim, stratum)
			}
			seen[stratum] = true
		}
	}
}

func TestSurrogateLearnsMonotoneObjective(t *testing.T) {
	rng := testRNG(2)
	// Objective rises with the first dimension only
	xs := latinHypercube(100, rng)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = x[0]
	}

	model := fitSurrogate(xs, ys, 5, 3, rng)
	if !model.usable() {
		t.Fatal("surrogate should be trained on 100 points")
	}

	low := model.predict(unitVector{0.1, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	high := model.predict(unitVector{0.9, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	if high <= low {
		t.Errorf("surrogate failed to learn the trend: predict(0.9)=%v <= predict(0.1)=%v", high, low)
	}

	// The optimistic bound over the whole cube dominates any prediction
	lo, hi := unitBox().lo, unitBox().hi
	if model.upperBound(lo, hi) < high {
		t.Error("upper bound over the full cube must dominate interior predictions")
	}
}

func TestRefineLocalPolishesQuadratic(t *testing.T) {
	// Concave objective with its peak inside the cube
	peak := unitVector{0.7, 0.3, 0.5, 0.6, 0.4, 0.5, 0.5}
	eval := func(u unitVector) float64 {
		sum := 0.0
		for i := range u {
			d := u[i] - peak[i]
			sum -= d * d
		}
		return sum
	}

	start := unitVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	refined, score, improved := refineLocal(start, eval(start), eval)
	if !improved {
		t.Fatal("refinement should improve from an off-peak start")
	}
	if score <= eval(start) {
		t.Errorf("refined score %v should beat start %v", score, eval(start))
	}
	for i := range refined {
		if math.Abs(refined[i]-peak[i]) > 0.1 {
			t.Errorf("dimension %d: refined %v too far from peak %v", i, refined[i], peak[i])
		}
	}
}

func TestOptimizeLowTargetScenario(t *testing.T) {
	// O=1800, M=2400, P=3000 with a target near the optimistic edge:
	// the baseline probability is small, and maximizing must find a
	// non-neutral slider setting at or above the baseline.
	est := estimate.MustNewEstimate(1800, 2400, 3000)
	pdf, cdf := baselineFor(t, est)
	target := 1850.0

	baselineProb := numeric.InterpolateCDF(cdf, target)
	if baselineProb > 0.10 {
		t.Fatalf("precondition: baseline P(X<=%v) should be small, got %v", target, baselineProb)
	}

	o := New(DefaultConfig())
	res, err := o.Optimize(context.Background(), pdf, cdf, est, target,
		Maximize, Fixed, 0, estimate.VeryConfident, testRNG(3))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Probability < baselineProb {
		t.Errorf("optimized probability %v regressed below baseline %v", res.Probability, baselineProb)
	}
	if res.Probability > baselineProb && res.Sliders.IsNeutral() {
		t.Error("an improving result should carry a non-neutral slider vector")
	}
	if res.Source == "" {
		t.Error("result must record its producing stage")
	}
}

func TestOptimizeTargetAtOptimisticBound(t *testing.T) {
	// Target exactly at the optimistic bound: the baseline probability is 0,
	// yet favorable sliders shift density onto the bound, so maximizing must
	// beat the baseline with a non-neutral vector rather than fall back.
	est := estimate.MustNewEstimate(1800, 2400, 3000)
	pdf, cdf := baselineFor(t, est)
	target := 1800.0

	baselineProb := numeric.InterpolateCDF(cdf, target)
	if baselineProb != 0 {
		t.Fatalf("precondition: baseline P(X<=%v) should be 0, got %v", target, baselineProb)
	}

	o := New(DefaultConfig())
	res, err := o.Optimize(context.Background(), pdf, cdf, est, target,
		Maximize, Fixed, 0, estimate.VeryConfident, testRNG(8))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Probability <= baselineProb {
		t.Errorf("optimized probability %v should exceed the zero baseline", res.Probability)
	}
	if res.Sliders.IsNeutral() {
		t.Error("the winner at the bound should carry a non-neutral slider vector")
	}
	if res.Source == distribution.SourceBaselineFallback {
		t.Error("a reachable improvement must not report the fallback source")
	}
}

func TestOptimizeBoundTargetOverMonteCarloBaseline(t *testing.T) {
	// Monte Carlo raw baselines carry an atom of clamped draws at the
	// optimistic bound; optimizing toward that bound must see it and never
	// report a probability below it.
	est := estimate.MustNewEstimate(100, 150, 260)
	gen, err := generators.Generate(est, distribution.MonteCarloRaw, 5000, testRNG(9))
	if err != nil {
		t.Fatalf("baseline generation: %v", err)
	}
	target := est.Optimistic

	baselineProb := numeric.InterpolateCDF(gen.CDF, target)
	if baselineProb <= 0 {
		t.Fatalf("precondition: clamped draws should give P(X<=%v) > 0, got %v", target, baselineProb)
	}

	o := New(DefaultConfig())
	res, err := o.Optimize(context.Background(), gen.PDF, gen.CDF, est, target,
		Maximize, Fixed, 0, estimate.VeryConfident, testRNG(10))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Probability < baselineProb {
		t.Errorf("optimized probability %v regressed below the baseline atom %v", res.Probability, baselineProb)
	}
	if res.Probability > baselineProb && res.Sliders.IsNeutral() {
		t.Error("an improving result should carry a non-neutral slider vector")
	}
}

// TestGuardrailMonotonicity sweeps targets and directions: the optimizer
// must never return a result worse than the baseline in the chosen direction.
func TestGuardrailMonotonicity(t *testing.T) {
	est := estimate.MustNewEstimate(100, 150, 260)
	pdf, cdf := baselineFor(t, est)

	cfg := DefaultConfig()
	cfg.ScoutSamples = 20
	cfg.PruneBudget = 10
	cfg.TopK = 5
	o := New(cfg)

	for _, target := range []float64{120, 150, 200, 250} {
		for _, dir := range []Direction{Maximize, Minimize} {
			res, err := o.Optimize(context.Background(), pdf, cdf, est, target,
				dir, Fixed, 0, estimate.Confident, testRNG(4))
			if err != nil {
				t.Fatalf("Optimize(target=%v, %s): %v", target, dir, err)
			}

			baselineProb := numeric.InterpolateCDF(cdf, target)
			if dir == Maximize && res.Probability < baselineProb-1e-9 {
				t.Errorf("maximize target=%v: %v below baseline %v", target, res.Probability, baselineProb)
			}
			if dir == Minimize && res.Probability > baselineProb+1e-9 {
				t.Errorf("minimize target=%v: %v above baseline %v", target, res.Probability, baselineProb)
			}
		}
	}
}

func TestOptimizeDegenerateCases(t *testing.T) {
	est := estimate.MustNewEstimate(10, 20, 30)
	pdf, cdf := baselineFor(t, est)
	o := New(DefaultConfig())
	ctx := context.Background()

	// Target below the support: probability 0 without searching
	res, err := o.Optimize(ctx, pdf, cdf, est, 5, Maximize, Fixed, 0, estimate.Confident, testRNG(5))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Probability != 0 || res.Source != distribution.SourceBaselineFallback {
		t.Errorf("below-support target: got prob=%v source=%s", res.Probability, res.Source)
	}

	// Target above the support: probability 1
	res, err = o.Optimize(ctx, pdf, cdf, est, 99, Maximize, Fixed, 0, estimate.Confident, testRNG(5))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Probability != 1 {
		t.Errorf("above-support target: got prob=%v", res.Probability)
	}

	// Zero-width range answered directly
	flat := estimate.Estimate{Optimistic: 20, MostLikely: 20, Pessimistic: 20}
	res, err = o.Optimize(ctx, pdf, cdf, flat, 25, Maximize, Fixed, 0, estimate.Confident, testRNG(5))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Probability != 1 {
		t.Errorf("zero-width range with target above: got prob=%v", res.Probability)
	}

	// Non-finite target is a validation error
	if _, err := o.Optimize(ctx, pdf, cdf, est, math.NaN(), Maximize, Fixed, 0, estimate.Confident, testRNG(5)); err == nil {
		t.Error("NaN target should error")
	}
}

func TestAdaptiveChaining(t *testing.T) {
	est := estimate.MustNewEstimate(1800, 2400, 3000)
	pdf, cdf := baselineFor(t, est)
	target := 2000.0

	cfg := DefaultConfig()
	cfg.ScoutSamples = 30
	o := New(cfg)
	ctx := context.Background()

	fixed, err := o.Optimize(ctx, pdf, cdf, est, target, Maximize, Fixed, 0, estimate.VeryConfident, testRNG(6))
	if err != nil {
		t.Fatalf("fixed: %v", err)
	}

	adaptive, err := o.Optimize(ctx, pdf, cdf, est, target, Maximize, Adaptive, 2, estimate.VeryConfident, testRNG(6))
	if err != nil {
		t.Fatalf("adaptive: %v", err)
	}

	// Adaptive must never regress below the fixed-mode, guardrail-checked result
	if adaptive.Probability < fixed.Probability-1e-9 {
		t.Errorf("adaptive probability %v regressed below fixed %v", adaptive.Probability, fixed.Probability)
	}

	// With a modest probe level the chaining drift should stay small
	if adaptive.ChainingDrift > DriftBound {
		t.Logf("chaining drift %v exceeds the %v acceptance bound (reported, not fatal)",
			adaptive.ChainingDrift, DriftBound)
	}
	if adaptive.ChainingDrift < 0 {
		t.Errorf("chaining drift must be non-negative, got %v", adaptive.ChainingDrift)
	}
}

func TestPruneSearchRespectsBudget(t *testing.T) {
	rng := testRNG(7)
	xs := latinHypercube(60, rng)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = x[0] * x[1]
	}
	model := fitSurrogate(xs, ys, 5, 3, rng)

	evals := 0
	eval := func(u unitVector) float64 {
		evals++
		return u[0] * u[1]
	}

	pruneSearch(model, eval, 0.1, 15)
	if evals > 15 {
		t.Errorf("prune stage spent %d evaluations, budget was 15", evals)
	}
}
