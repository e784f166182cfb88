package distribution

import (
	"fmt"
	"math"

	"pmcestimator/domain/estimate"
)

// DefaultPointCount is the fixed resolution of generated PDF/CDF sequences
const DefaultPointCount = 100

// Point is one (x, y) sample of a PDF or CDF
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Points is an ordered sequence of distribution samples spanning
// [optimistic, pessimistic]. Always produced fresh, never mutated in place.
type Points []Point

// Xs returns the x coordinates
func (p Points) Xs() []float64 {
	xs := make([]float64, len(p))
	for i, pt := range p {
		xs[i] = pt.X
	}
	return xs
}

// Ys returns the y coordinates
func (p Points) Ys() []float64 {
	ys := make([]float64, len(p))
	for i, pt := range p {
		ys[i] = pt.Y
	}
	return ys
}

// Clone returns an independent copy
func (p Points) Clone() Points {
	out := make(Points, len(p))
	copy(out, p)
	return out
}

// Validate checks that every coordinate is finite
func (p Points) Validate() error {
	for i, pt := range p {
		if math.IsNaN(pt.X) || math.IsInf(pt.X, 0) || math.IsNaN(pt.Y) || math.IsInf(pt.Y, 0) {
			return fmt.Errorf("non-finite point at index %d: (%v, %v)", i, pt.X, pt.Y)
		}
	}
	return nil
}

// DistributionType selects a baseline generator family
type DistributionType string

const (
	Triangular         DistributionType = "triangular"
	PERTBeta           DistributionType = "pert"
	MonteCarloRaw      DistributionType = "monte_carlo_raw"
	MonteCarloSmoothed DistributionType = "monte_carlo_smoothed"
)

// ParseDistributionType validates a distribution family name
func ParseDistributionType(s string) (DistributionType, error) {
	switch DistributionType(s) {
	case Triangular, PERTBeta, MonteCarloRaw, MonteCarloSmoothed:
		return DistributionType(s), nil
	case "":
		return PERTBeta, nil
	default:
		return "", fmt.Errorf("unknown distribution type %q", s)
	}
}

// CalculationMode records which reshaping rule applied
type CalculationMode string

const (
	ModeMultiplicative   CalculationMode = "multiplicative"
	ModeMatrixNonExtreme CalculationMode = "matrix_non_extreme"
	ModeMatrixExtreme    CalculationMode = "matrix_extreme"
	ModeBaselineFallback CalculationMode = "baseline_fallback"
)

// ReshapedResult is the output of one reshape call
type ReshapedResult struct {
	PDF      Points          `json:"pdf_points"`
	CDF      Points          `json:"cdf_points"`
	Mode     CalculationMode `json:"calculation_mode"`
	Feedback string          `json:"feedback_message"`
	Err      error           `json:"-"`
}

// OptimizationSource records which stage of the search produced the winner
type OptimizationSource string

const (
	SourceScout            OptimizationSource = "scout"
	SourceSurrogate        OptimizationSource = "surrogate"
	SourceRefinement       OptimizationSource = "local_refinement"
	SourceBaselineFallback OptimizationSource = "baseline_fallback"
)

// OptimizationResult is the output of one optimizer run
type OptimizationResult struct {
	Sliders       estimate.SliderVector `json:"sliders"`
	PDF           Points                `json:"reshaped_pdf"`
	CDF           Points                `json:"reshaped_cdf"`
	Probability   float64               `json:"probability"`
	Mode          CalculationMode       `json:"calculation_mode"`
	Feedback      string                `json:"feedback_message"`
	Source        OptimizationSource    `json:"source"`
	ChainingDrift float64               `json:"chaining_drift,omitempty"`
}

// TargetProbability carries the four parallel readings of P(X <= target)
type TargetProbability struct {
	Original          float64 `json:"original"`
	Adjusted          float64 `json:"adjusted"`
	AdjustedOptimized float64 `json:"adjusted_optimized"`
	AdaptiveOptimized float64 `json:"adaptive_optimized"`
}
