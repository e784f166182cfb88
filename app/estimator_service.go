package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"pmcestimator/domain/core"
	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
	"pmcestimator/internal/generators"
	"pmcestimator/internal/numeric"
	"pmcestimator/internal/optimizer"
	"pmcestimator/internal/reshape"
	"pmcestimator/internal/sensitivity"
	"pmcestimator/ports"
)

// EstimatorService processes batches of estimation tasks: baseline
// generation, slider reshaping, and slider optimization. Stateless between
// calls; every task is a pure function of its record plus the batch seed.
type EstimatorService struct {
	rngPort   ports.RNGPort
	optimizer *optimizer.Optimizer
}

// BatchRequest defines one batch call
type BatchRequest struct {
	Tasks            []ports.TaskRecord            `json:"tasks"`
	DistributionType distribution.DistributionType `json:"distribution_type,omitempty"`
	NumSamples       int                           `json:"num_samples,omitempty"`
	Seed             int64                         `json:"seed,omitempty"`
	Parallelism      int                           `json:"parallelism,omitempty"`
}

// TaskResult is the complete per-task output. Err is recorded, not
// propagated: a malformed task never prevents its siblings from completing.
type TaskResult struct {
	TaskID        core.TaskID                      `json:"task_id"`
	Name          string                           `json:"task_name"`
	BaselinePDF   distribution.Points              `json:"baseline_pdf,omitempty"`
	BaselineCDF   distribution.Points              `json:"baseline_cdf,omitempty"`
	Reshaped      *distribution.ReshapedResult     `json:"reshaped,omitempty"`
	Fixed         *distribution.OptimizationResult `json:"optimized,omitempty"`
	Adaptive      *distribution.OptimizationResult `json:"adaptive_optimized,omitempty"`
	Probabilities *distribution.TargetProbability  `json:"target_probability,omitempty"`
	Sensitivity   []sensitivity.Effect             `json:"sensitivity,omitempty"`
	Error         string                           `json:"error,omitempty"`
}

// BatchResult pairs the batch with a parallel array of task results
type BatchResult struct {
	BatchID   core.BatchID   `json:"batch_id"`
	Results   []TaskResult   `json:"results"`
	RuntimeMs int64          `json:"runtime_ms"`
	CreatedAt core.Timestamp `json:"created_at"`
}

// NewEstimatorService creates the batch service
func NewEstimatorService(rngPort ports.RNGPort, cfg optimizer.Config) *EstimatorService {
	return &EstimatorService{
		rngPort:   rngPort,
		optimizer: optimizer.New(cfg),
	}
}

// ProcessBatch runs every task independently and returns a parallel array
// of results. Per-task failures are reported in the task's slot; nothing a
// single task does can abort its siblings.
func (s *EstimatorService) ProcessBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	start := time.Now()

	distType, err := distribution.ParseDistributionType(string(req.DistributionType))
	if err != nil {
		return nil, err
	}

	parallelism := req.Parallelism
	if parallelism <= 0 {
		parallelism = 4
	}

	batchID := core.BatchID(core.NewID())
	results := make([]TaskResult, len(req.Tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range req.Tasks {
		i := i
		g.Go(func() error {
			results[i] = s.processTask(gctx, batchID, i, req.Tasks[i], distType, req.NumSamples, req.Seed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	runtime := time.Since(start).Milliseconds()
	log.Printf("[EstimatorService] Batch %s: %d tasks in %dms", batchID, len(req.Tasks), runtime)

	return &BatchResult{
		BatchID:   batchID,
		Results:   results,
		RuntimeMs: runtime,
		CreatedAt: core.Now(),
	}, nil
}

// processTask runs one task end to end; every failure lands in the result
func (s *EstimatorService) processTask(ctx context.Context, batchID core.BatchID, idx int,
	rec ports.TaskRecord, distType distribution.DistributionType, numSamples int, seed int64) TaskResult {

	taskID := core.TaskID(fmt.Sprintf("%s/%d", batchID, idx))
	// Stream names must not include the batch ID or re-running the same
	// batch with the same seed would draw different samples
	streamKey := fmt.Sprintf("task-%d", idx)
	result := TaskResult{TaskID: taskID, Name: rec.Name}

	fail := func(err error) TaskResult {
		log.Printf("[EstimatorService] Task %q failed: %v", rec.Name, err)
		result.Error = err.Error()
		return result
	}

	est, err := estimate.NewEstimate(rec.Optimistic, rec.MostLikely, rec.Pessimistic)
	if err != nil {
		return fail(err)
	}

	tag, err := estimate.ParseConfidenceTag(rec.ConfidenceLevel)
	if err != nil {
		return fail(err)
	}

	// Request-boundary slider validation rejects; internal search clamps
	sliders := estimate.NeutralSliders()
	if rec.SliderValues != nil {
		if err := rec.SliderValues.Validate(); err != nil {
			return fail(err)
		}
		sliders = *rec.SliderValues
	}

	mcRNG, err := s.rngPort.Stream(ctx, streamKey, "monte_carlo", seed)
	if err != nil {
		return fail(err)
	}

	baseline, err := generators.Generate(est, distType, numSamples, mcRNG)
	if err != nil {
		return fail(err)
	}
	result.BaselinePDF = baseline.PDF
	result.BaselineCDF = baseline.CDF

	// Without a target the task is baseline-plus-reshape only
	if rec.TargetValue == nil {
		if rec.SliderValues != nil {
			reshaped := reshape.Reshape(baseline.PDF, baseline.CDF, est, sliders, tag)
			if reshaped.Err != nil {
				return fail(reshaped.Err)
			}
			result.Reshaped = &reshaped
		}
		return result
	}

	target := *rec.TargetValue
	probs := distribution.TargetProbability{
		Original: numeric.InterpolateCDF(baseline.CDF, target),
	}
	probs.Adjusted = probs.Original

	if rec.SliderValues != nil {
		reshaped := reshape.ReshapeToward(baseline.PDF, baseline.CDF, est, sliders, tag, target)
		if reshaped.Err != nil {
			return fail(reshaped.Err)
		}
		result.Reshaped = &reshaped
		probs.Adjusted = numeric.InterpolateCDF(reshaped.CDF, target)

		effects, err := sensitivity.SliderSensitivity(baseline.PDF, baseline.CDF, est, sliders, tag, target, 0)
		if err != nil {
			return fail(err)
		}
		result.Sensitivity = effects
	}

	if rec.Optimize {
		direction := optimizer.Maximize
		if rec.Direction == string(optimizer.Minimize) {
			direction = optimizer.Minimize
		}

		optRNG, err := s.rngPort.Stream(ctx, streamKey, "optimizer", seed)
		if err != nil {
			return fail(err)
		}
		fixed, err := s.optimizer.Optimize(ctx, baseline.PDF, baseline.CDF, est, target,
			direction, optimizer.Fixed, rec.ProbeLevel, tag, optRNG)
		if err != nil {
			return fail(err)
		}
		result.Fixed = &fixed
		probs.AdjustedOptimized = fixed.Probability
		probs.AdaptiveOptimized = fixed.Probability

		if rec.Adaptive {
			adaptiveRNG, err := s.rngPort.Stream(ctx, streamKey, "optimizer", seed)
			if err != nil {
				return fail(err)
			}
			adaptive, err := s.optimizer.Optimize(ctx, baseline.PDF, baseline.CDF, est, target,
				direction, optimizer.Adaptive, rec.ProbeLevel, tag, adaptiveRNG)
			if err != nil {
				return fail(err)
			}
			result.Adaptive = &adaptive
			probs.AdaptiveOptimized = adaptive.Probability

			if adaptive.ChainingDrift > optimizer.DriftBound {
				log.Printf("[EstimatorService] Task %q: chaining drift %.3f exceeds %.2f",
					rec.Name, adaptive.ChainingDrift, optimizer.DriftBound)
			}
		}
	}

	result.Probabilities = &probs
	return result
}

// Summarize flattens task results into the records external writers accept
func Summarize(results []TaskResult) []ports.ResultRecord {
	records := make([]ports.ResultRecord, len(results))
	for i, r := range results {
		rec := ports.ResultRecord{Name: r.Name, Error: r.Error}
		if r.Probabilities != nil {
			rec.Original = r.Probabilities.Original
			rec.Adjusted = r.Probabilities.Adjusted
			rec.AdjustedOptimized = r.Probabilities.AdjustedOptimized
			rec.AdaptiveOptimized = r.Probabilities.AdaptiveOptimized
		}
		if r.Reshaped != nil {
			rec.CalculationMode = string(r.Reshaped.Mode)
			rec.Feedback = r.Reshaped.Feedback
		}
		if r.Fixed != nil {
			rec.Source = string(r.Fixed.Source)
			if rec.CalculationMode == "" {
				rec.CalculationMode = string(r.Fixed.Mode)
			}
			if rec.Feedback == "" {
				rec.Feedback = r.Fixed.Feedback
			}
		}
		if r.Adaptive != nil {
			rec.ChainingDrift = r.Adaptive.ChainingDrift
		}
		records[i] = rec
	}
	return records
}
