package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"pmcestimator/domain/core"
	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
	"pmcestimator/internal/numeric"
	"pmcestimator/internal/reshape"
)

// Mode selects the search variant
type Mode string

const (
	Fixed    Mode = "fixed"
	Adaptive Mode = "adaptive"
)

// Direction selects whether P(X <= target) is maximized or minimized
type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

// DriftBound is the acceptable chaining drift between fixed- and
// adaptive-mode slider vectors; larger drift signals non-convergence and is
// reported, not failed.
const DriftBound = 0.05

// Config tunes the search stages. Zero values take defaults.
type Config struct {
	ScoutSamples   int
	SurrogateTrees int
	TreeDepth      int
	CandidatePool  int
	TopK           int
	PruneBudget    int
	ProbeSamples   int
	Damping        float64
	Parallelism    int
}

// DefaultConfig returns the stock search budgets
func DefaultConfig() Config {
	return Config{
		ScoutSamples:   60,
		SurrogateTrees: 5,
		TreeDepth:      3,
		CandidatePool:  200,
		TopK:           10,
		PruneBudget:    40,
		ProbeSamples:   20,
		Damping:        0.5,
		Parallelism:    4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ScoutSamples <= 0 {
		c.ScoutSamples = d.ScoutSamples
	}
	if c.SurrogateTrees <= 0 {
		c.SurrogateTrees = d.SurrogateTrees
	}
	if c.TreeDepth <= 0 {
		c.TreeDepth = d.TreeDepth
	}
	if c.CandidatePool <= 0 {
		c.CandidatePool = d.CandidatePool
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.PruneBudget <= 0 {
		c.PruneBudget = d.PruneBudget
	}
	if c.ProbeSamples <= 0 {
		c.ProbeSamples = d.ProbeSamples
	}
	if c.Damping <= 0 || c.Damping > 1 {
		c.Damping = d.Damping
	}
	if c.Parallelism <= 0 {
		c.Parallelism = d.Parallelism
	}
	return c
}

// Optimizer runs the slider search over a fixed baseline
type Optimizer struct {
	cfg Config
}

// New creates an optimizer with the given configuration
func New(cfg Config) *Optimizer {
	return &Optimizer{cfg: cfg.withDefaults()}
}

// Optimize searches slider space for the setting that best satisfies the
// target-probability objective. Degenerate ranges and out-of-support
// targets are answered directly without invoking the search.
func (o *Optimizer) Optimize(ctx context.Context, baselinePDF, baselineCDF distribution.Points,
	est estimate.Estimate, target float64, direction Direction, mode Mode,
	probeLevel int, tag estimate.ConfidenceTag, rng *rand.Rand) (distribution.OptimizationResult, error) {

	if math.IsNaN(target) || math.IsInf(target, 0) {
		return distribution.OptimizationResult{}, fmt.Errorf("%w: target %v", core.ErrInvalidTarget, target)
	}
	if rng == nil {
		return distribution.OptimizationResult{}, fmt.Errorf("optimizer requires a seeded RNG stream")
	}
	if direction != Maximize && direction != Minimize {
		return distribution.OptimizationResult{}, fmt.Errorf("unknown direction %q", direction)
	}

	// Degenerate zero-width range: all mass at one point, answer directly
	if est.Range() <= 0 {
		prob := 0.0
		if target >= est.Optimistic {
			prob = 1.0
		}
		return directAnswer(baselinePDF, baselineCDF, prob,
			"Degenerate estimate range: probability answered without optimization."), nil
	}
	// Target outside the support: the answer is 0 or 1 for every slider setting
	if target < est.Optimistic || target > est.Pessimistic {
		prob := 0.0
		if target > est.Pessimistic {
			prob = 1.0
		}
		return directAnswer(baselinePDF, baselineCDF, prob,
			"Target outside the estimate range: probability answered without optimization."), nil
	}

	sign := 1.0
	if direction == Minimize {
		sign = -1.0
	}

	evalScore := func(u unitVector) float64 {
		res := reshape.ReshapeToward(baselinePDF, baselineCDF, est, u.toSliders(), tag, target)
		if res.Err != nil {
			return math.Inf(-1)
		}
		return sign * numeric.InterpolateCDF(res.CDF, target)
	}

	baselineProb := numeric.InterpolateCDF(baselineCDF, target)
	baselineScore := sign * baselineProb

	bestU, bestScore, source, err := o.fixedPipeline(ctx, evalScore, baselineScore, rng)
	if err != nil {
		return distribution.OptimizationResult{}, err
	}

	drift := 0.0
	if mode == Adaptive {
		adaptedU, adaptedScore, adaptedSource := o.adaptivePass(bestU, bestScore, evalScore, probeLevel, rng)
		// Adaptive refinement must never regress below the fixed-mode winner
		if adaptedScore > bestScore {
			drift = chainingDrift(bestU, adaptedU)
			bestU, bestScore, source = adaptedU, adaptedScore, adaptedSource
		}
	}

	// Guardrail: a worse "optimized" answer is never returned; the baseline
	// is a deliberate no-op result instead
	if bestScore <= baselineScore {
		result := directAnswer(baselinePDF, baselineCDF, baselineProb,
			"Optimizer kept the baseline: no slider setting improved on it.")
		return result, nil
	}

	winner := bestU.toSliders()
	res := reshape.ReshapeToward(baselinePDF, baselineCDF, est, winner, tag, target)
	if res.Err != nil {
		return distribution.OptimizationResult{}, fmt.Errorf("winning candidate failed to reshape: %w", res.Err)
	}

	return distribution.OptimizationResult{
		Sliders:       winner,
		PDF:           res.PDF,
		CDF:           res.CDF,
		Probability:   numeric.InterpolateCDF(res.CDF, target),
		Mode:          res.Mode,
		Feedback:      res.Feedback,
		Source:        source,
		ChainingDrift: drift,
	}, nil
}

// fixedPipeline runs scout -> surrogate -> prune -> local refinement and
// returns the best candidate with the stage that produced it
func (o *Optimizer) fixedPipeline(ctx context.Context, evalScore func(unitVector) float64,
	baselineScore float64, rng *rand.Rand) (unitVector, float64, distribution.OptimizationSource, error) {

	var bestU unitVector
	bestScore := baselineScore
	source := distribution.SourceBaselineFallback

	// Scout: stratified coverage of the slider cube. Evaluations are
	// independent; order does not matter since only the best survives.
	scouts := latinHypercube(o.cfg.ScoutSamples, rng)
	scores := make([]float64, len(scouts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Parallelism)
	for i := range scouts {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = evalScore(scouts[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return bestU, bestScore, source, err
	}

	for i, score := range scores {
		if score > bestScore {
			bestU, bestScore, source = scouts[i], score, distribution.SourceScout
		}
	}

	// Surrogate: rank a cheap candidate pool, exactly evaluate the top slice
	model := fitSurrogate(scouts, scores, o.cfg.SurrogateTrees, o.cfg.TreeDepth, rng)
	if model.usable() {
		pool := make([]unitVector, o.cfg.CandidatePool)
		for i := range pool {
			for d := range pool[i] {
				pool[i][d] = rng.Float64()
			}
		}
		for _, candidate := range topRanked(model, pool, o.cfg.TopK) {
			if score := evalScore(candidate); score > bestScore {
				bestU, bestScore, source = candidate, score, distribution.SourceSurrogate
			}
		}

		// Prune: branch-and-bound concentrates the remaining exact budget
		if u, score, ok := pruneSearch(model, evalScore, bestScore, o.cfg.PruneBudget); ok {
			bestU, bestScore, source = u, score, distribution.SourceSurrogate
		}
	}

	// Local refinement polishes the incumbent
	if u, score, ok := refineLocal(bestU, bestScore, evalScore); ok {
		bestU, bestScore, source = u, score, distribution.SourceRefinement
	}

	return bestU, bestScore, source, nil
}

// adaptivePass re-probes the neighborhood of the fixed-mode winner at the
// caller-supplied probe level, damping slider deltas to avoid oscillation
func (o *Optimizer) adaptivePass(seed unitVector, seedScore float64,
	evalScore func(unitVector) float64, probeLevel int, rng *rand.Rand) (unitVector, float64, distribution.OptimizationSource) {

	if probeLevel <= 0 {
		probeLevel = 1
	}
	radius := math.Min(0.05*float64(probeLevel), 0.5)

	bestU, bestScore := seed, seedScore
	for i := 0; i < o.cfg.ProbeSamples; i++ {
		var probe unitVector
		for d := range probe {
			raw := seed[d] + (rng.Float64()*2-1)*radius
			// Damping pulls the probe back toward the fixed-mode winner
			probe[d] = seed[d] + o.cfg.Damping*(raw-seed[d])
		}
		probe = clampUnit(probe)
		if score := evalScore(probe); score > bestScore {
			bestU, bestScore = probe, score
		}
	}

	if u, score, ok := refineLocal(bestU, bestScore, evalScore); ok {
		bestU, bestScore = u, score
	}

	return bestU, bestScore, distribution.SourceRefinement
}

// topRanked returns the k pool candidates with the highest surrogate scores
func topRanked(model *surrogate, pool []unitVector, k int) []unitVector {
	type ranked struct {
		u     unitVector
		score float64
	}
	rankedPool := make([]ranked, len(pool))
	for i, u := range pool {
		rankedPool[i] = ranked{u: u, score: model.predict(u)}
	}
	// Partial selection sort: k is small relative to the pool
	if k > len(rankedPool) {
		k = len(rankedPool)
	}
	for i := 0; i < k; i++ {
		maxIdx := i
		for j := i + 1; j < len(rankedPool); j++ {
			if rankedPool[j].score > rankedPool[maxIdx].score {
				maxIdx = j
			}
		}
		rankedPool[i], rankedPool[maxIdx] = rankedPool[maxIdx], rankedPool[i]
	}

	out := make([]unitVector, k)
	for i := 0; i < k; i++ {
		out[i] = rankedPool[i].u
	}
	return out
}

// chainingDrift measures the relative L2 change between the fixed-mode and
// adaptive-mode slider vectors in unit-cube coordinates
func chainingDrift(fixed, adapted unitVector) float64 {
	var diffSq, baseSq float64
	for i := range fixed {
		d := adapted[i] - fixed[i]
		diffSq += d * d
		baseSq += fixed[i] * fixed[i]
	}
	if baseSq == 0 {
		if diffSq == 0 {
			return 0
		}
		return math.Sqrt(diffSq) / math.Sqrt(estimate.SliderCount)
	}
	return math.Sqrt(diffSq) / math.Sqrt(baseSq)
}

// directAnswer wraps the unmodified baseline as a deliberate no-op result
func directAnswer(pdf, cdf distribution.Points, prob float64, feedback string) distribution.OptimizationResult {
	return distribution.OptimizationResult{
		Sliders:     estimate.NeutralSliders(),
		PDF:         pdf.Clone(),
		CDF:         cdf.Clone(),
		Probability: prob,
		Mode:        distribution.ModeBaselineFallback,
		Feedback:    feedback,
		Source:      distribution.SourceBaselineFallback,
	}
}
