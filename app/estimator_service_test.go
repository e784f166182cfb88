package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmcestimator/adapters/rng"
	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
	"pmcestimator/internal/optimizer"
	"pmcestimator/ports"
)

func newTestService() *EstimatorService {
	cfg := optimizer.DefaultConfig()
	cfg.ScoutSamples = 20
	cfg.CandidatePool = 50
	cfg.PruneBudget = 10
	return NewEstimatorService(rng.New(), cfg)
}

func floatPtr(v float64) *float64 { return &v }

func TestProcessBatchBaselineOnly(t *testing.T) {
	svc := newTestService()

	batch, err := svc.ProcessBatch(context.Background(), BatchRequest{
		Tasks: []ports.TaskRecord{
			{Name: "api-migration", Optimistic: 1800, MostLikely: 2400, Pessimistic: 3000},
		},
		Seed: 42,
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)

	res := batch.Results[0]
	assert.Empty(t, res.Error)
	assert.Equal(t, "api-migration", res.Name)
	assert.NotEmpty(t, res.TaskID)
	assert.Len(t, res.BaselinePDF, distribution.DefaultPointCount)
	assert.Len(t, res.BaselineCDF, distribution.DefaultPointCount)
	assert.Nil(t, res.Reshaped)
	assert.Nil(t, res.Probabilities)
}

func TestProcessBatchWithSlidersAndTarget(t *testing.T) {
	svc := newTestService()

	sliders := estimate.FromValues([estimate.SliderCount]float64{75, 70, 65, 60, 5, 70, 80})
	batch, err := svc.ProcessBatch(context.Background(), BatchRequest{
		Tasks: []ports.TaskRecord{
			{
				Name:            "db-upgrade",
				Optimistic:      1800,
				MostLikely:      2400,
				Pessimistic:     3000,
				SliderValues:    &sliders,
				TargetValue:     floatPtr(2200),
				ConfidenceLevel: "confident",
			},
		},
		Seed: 7,
	})
	require.NoError(t, err)
	res := batch.Results[0]
	require.Empty(t, res.Error)

	require.NotNil(t, res.Reshaped)
	require.NotNil(t, res.Probabilities)
	assert.Greater(t, res.Probabilities.Original, 0.0)
	assert.Less(t, res.Probabilities.Original, 1.0)
	assert.GreaterOrEqual(t, res.Probabilities.Adjusted, 0.0)
	assert.LessOrEqual(t, res.Probabilities.Adjusted, 1.0)
	assert.Len(t, res.Sensitivity, estimate.SliderCount)
}

func TestProcessBatchOptimizes(t *testing.T) {
	svc := newTestService()

	batch, err := svc.ProcessBatch(context.Background(), BatchRequest{
		Tasks: []ports.TaskRecord{
			{
				Name:        "deploy-window",
				Optimistic:  1800,
				MostLikely:  2400,
				Pessimistic: 3000,
				TargetValue: floatPtr(2000),
				Optimize:    true,
				Adaptive:    true,
				ProbeLevel:  2,
			},
		},
		Seed: 99,
	})
	require.NoError(t, err)
	res := batch.Results[0]
	require.Empty(t, res.Error)

	require.NotNil(t, res.Fixed)
	require.NotNil(t, res.Adaptive)
	require.NotNil(t, res.Probabilities)

	// Optimization may only improve on the unassisted baseline
	assert.GreaterOrEqual(t, res.Probabilities.AdjustedOptimized, res.Probabilities.Original)
	assert.GreaterOrEqual(t, res.Probabilities.AdaptiveOptimized, res.Probabilities.AdjustedOptimized-1e-9)
	assert.GreaterOrEqual(t, res.Adaptive.ChainingDrift, 0.0)
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	svc := newTestService()

	batch, err := svc.ProcessBatch(context.Background(), BatchRequest{
		Tasks: []ports.TaskRecord{
			{Name: "inverted", Optimistic: 3000, MostLikely: 2400, Pessimistic: 1800},
			{Name: "healthy", Optimistic: 10, MostLikely: 20, Pessimistic: 30},
		},
		Seed: 1,
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)

	assert.NotEmpty(t, batch.Results[0].Error)
	assert.Empty(t, batch.Results[1].Error)
	assert.NotEmpty(t, batch.Results[1].BaselinePDF)
}

func TestProcessBatchRejectsOutOfRangeSliders(t *testing.T) {
	svc := newTestService()

	bad := estimate.FromValues([estimate.SliderCount]float64{150, 50, 50, 50, 25, 50, 50})
	batch, err := svc.ProcessBatch(context.Background(), BatchRequest{
		Tasks: []ports.TaskRecord{
			{Name: "bad-sliders", Optimistic: 10, MostLikely: 20, Pessimistic: 30, SliderValues: &bad},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, batch.Results[0].Error)
}

func TestProcessBatchDeterministicForSeed(t *testing.T) {
	svc := newTestService()
	req := BatchRequest{
		Tasks: []ports.TaskRecord{
			{
				Name:        "repeatable",
				Optimistic:  100,
				MostLikely:  150,
				Pessimistic: 260,
				TargetValue: floatPtr(140),
				Optimize:    true,
			},
		},
		DistributionType: distribution.MonteCarloRaw,
		Seed:             1234,
	}

	first, err := svc.ProcessBatch(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.ProcessBatch(context.Background(), req)
	require.NoError(t, err)

	require.Empty(t, first.Results[0].Error)
	require.Empty(t, second.Results[0].Error)
	assert.Equal(t, first.Results[0].BaselinePDF, second.Results[0].BaselinePDF)
	assert.Equal(t, first.Results[0].Probabilities, second.Results[0].Probabilities)
}

func TestSummarizeFlattensResults(t *testing.T) {
	svc := newTestService()

	sliders := estimate.NeutralSliders()
	batch, err := svc.ProcessBatch(context.Background(), BatchRequest{
		Tasks: []ports.TaskRecord{
			{Name: "broken", Optimistic: 5, MostLikely: 5, Pessimistic: 5},
			{
				Name: "summarized", Optimistic: 10, MostLikely: 20, Pessimistic: 30,
				SliderValues: &sliders, TargetValue: floatPtr(18), Optimize: true,
			},
		},
		Seed: 3,
	})
	require.NoError(t, err)

	records := Summarize(batch.Results)
	require.Len(t, records, 2)

	assert.Equal(t, "broken", records[0].Name)
	assert.NotEmpty(t, records[0].Error)

	assert.Equal(t, "summarized", records[1].Name)
	assert.Empty(t, records[1].Error)
	assert.Greater(t, records[1].Original, 0.0)
	assert.NotEmpty(t, records[1].CalculationMode)
	assert.NotEmpty(t, records[1].Source)
}
