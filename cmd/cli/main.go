package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pmcestimator/adapters/excel"
	"pmcestimator/adapters/rng"
	"pmcestimator/app"
	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
	"pmcestimator/internal/config"
	"pmcestimator/internal/generators"
	"pmcestimator/internal/optimizer"
	"pmcestimator/internal/reshape"
	"pmcestimator/ports"
)

func main() {
	// Optional .env for default seed and distribution overrides
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "pmc-estimator",
		Short: "Three-point estimation with slider reshaping and optimization",
	}

	rootCmd.AddCommand(
		newGenerateCmd(cfg),
		newReshapeCmd(cfg),
		newOptimizeCmd(cfg),
		newBatchCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseEstimateArgs(args []string) (o, m, p float64, err error) {
	if o, err = strconv.ParseFloat(args[0], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid optimistic value %q: %w", args[0], err)
	}
	if m, err = strconv.ParseFloat(args[1], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid most-likely value %q: %w", args[1], err)
	}
	if p, err = strconv.ParseFloat(args[2], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid pessimistic value %q: %w", args[2], err)
	}
	return o, m, p, nil
}

func parseSliderFlags(raw []float64) (*estimate.SliderVector, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw) != estimate.SliderCount {
		return nil, fmt.Errorf("expected %d slider values in order %v, got %d",
			estimate.SliderCount, estimate.SliderNames(), len(raw))
	}
	var values [estimate.SliderCount]float64
	copy(values[:], raw)
	v, err := estimate.NewSliderVector(values)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	var seed int64
	var distType string
	var numSamples int

	cmd := &cobra.Command{
		Use:   "generate [optimistic] [most-likely] [pessimistic]",
		Short: "Generate a baseline PDF/CDF for a three-point estimate",
		Long: `Generate a baseline probability distribution from a three-point estimate.

Example: pmc-estimator generate 1800 2400 3000 --distribution pert --seed 42`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, m, p, err := parseEstimateArgs(args)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), o, m, p, distType, numSamples, seed)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", cfg.Engine.Seed, "Random seed for deterministic operations")
	cmd.Flags().StringVar(&distType, "distribution", string(cfg.Engine.DistributionType),
		"Distribution type: triangular|pert|monte_carlo_raw|monte_carlo_smoothed")
	cmd.Flags().IntVar(&numSamples, "samples", cfg.Engine.NumSamples, "Monte Carlo sample count (0 = default)")

	return cmd
}

func newReshapeCmd(cfg *config.Config) *cobra.Command {
	var seed int64
	var distType string
	var sliderValues []float64
	var confidence string
	var target float64

	cmd := &cobra.Command{
		Use:   "reshape [optimistic] [most-likely] [pessimistic]",
		Short: "Reshape a baseline distribution with slider settings",
		Long: `Apply the seven managerial sliders to a baseline distribution.

Slider order: budgetFlexibility, scheduleFlexibility, scopeCertainty,
scopeReductionAllowance, reworkPercentage, riskTolerance, userConfidence.

Example: pmc-estimator reshape 1800 2400 3000 --sliders 70,60,55,40,10,65,75 --target 2100`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, m, p, err := parseEstimateArgs(args)
			if err != nil {
				return err
			}
			return runReshape(cmd.Context(), o, m, p, distType, sliderValues, confidence, target, seed)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", cfg.Engine.Seed, "Random seed for deterministic operations")
	cmd.Flags().StringVar(&distType, "distribution", string(cfg.Engine.DistributionType),
		"Distribution type: triangular|pert|monte_carlo_raw|monte_carlo_smoothed")
	cmd.Flags().Float64SliceVar(&sliderValues, "sliders", nil, "Seven slider values in canonical order")
	cmd.Flags().StringVar(&confidence, "confidence", "", "Confidence tag: not_confident|confident|very_confident")
	cmd.Flags().Float64Var(&target, "target", 0, "Target value the reshape leans toward (0 = optimistic bound)")

	return cmd
}

func newOptimizeCmd(cfg *config.Config) *cobra.Command {
	var seed int64
	var distType string
	var adaptive bool
	var probeLevel int
	var direction string
	var confidence string

	cmd := &cobra.Command{
		Use:   "optimize [optimistic] [most-likely] [pessimistic] [target]",
		Short: "Search slider settings that move P(X <= target)",
		Long: `Search the slider space for the setting that maximizes (or minimizes)
the probability of finishing at or under the target.

Example: pmc-estimator optimize 1800 2400 3000 2100 --adaptive --probe-level 2`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, m, p, err := parseEstimateArgs(args)
			if err != nil {
				return err
			}
			target, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid target value %q: %w", args[3], err)
			}
			return runOptimize(cmd.Context(), cfg.Search, o, m, p, target, distType,
				adaptive, probeLevel, direction, confidence, seed)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", cfg.Engine.Seed, "Random seed for deterministic operations")
	cmd.Flags().StringVar(&distType, "distribution", string(cfg.Engine.DistributionType),
		"Distribution type: triangular|pert|monte_carlo_raw|monte_carlo_smoothed")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "Run the adaptive refinement pass after the fixed pipeline")
	cmd.Flags().IntVar(&probeLevel, "probe-level", 1, "Adaptive probe radius level")
	cmd.Flags().StringVar(&direction, "direction", string(optimizer.Maximize), "maximize or minimize")
	cmd.Flags().StringVar(&confidence, "confidence", "", "Confidence tag: not_confident|confident|very_confident")

	return cmd
}

func newBatchCmd(cfg *config.Config) *cobra.Command {
	var seed int64
	var distType string
	var output string
	var parallelism int

	cmd := &cobra.Command{
		Use:   "batch [task-file]",
		Short: "Process a batch of tasks from an Excel or CSV file",
		Long: `Read task rows from an Excel (Sheet1) or CSV file, run each through
baseline generation, reshaping, and optimization, and write a summary.

Example: pmc-estimator batch tasks.xlsx --output results.xlsx --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), cfg.Search, args[0], output, distType, parallelism, seed)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", cfg.Engine.Seed, "Random seed for deterministic operations")
	cmd.Flags().StringVar(&distType, "distribution", string(cfg.Engine.DistributionType),
		"Distribution type: triangular|pert|monte_carlo_raw|monte_carlo_smoothed")
	cmd.Flags().StringVar(&output, "output", cfg.Batch.OutputFile, "Result file path (.xlsx or .csv); empty prints JSON")
	cmd.Flags().IntVar(&parallelism, "parallelism", cfg.Batch.Parallelism, "Concurrent task limit")

	return cmd
}

func runGenerate(ctx context.Context, o, m, p float64, distType string, numSamples int, seed int64) error {
	est, err := estimate.NewEstimate(o, m, p)
	if err != nil {
		return err
	}
	typ, err := distribution.ParseDistributionType(distType)
	if err != nil {
		return err
	}

	rngAdapter := rng.New()
	stream, err := rngAdapter.SeededStream(ctx, "generate", seed)
	if err != nil {
		return err
	}

	result, err := generators.Generate(est, typ, numSamples, stream)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"estimate":     est,
		"distribution": typ,
		"mean":         est.Mean(),
		"std_dev":      est.StdDev(),
		"pdf":          result.PDF,
		"cdf":          result.CDF,
	})
}

func runReshape(ctx context.Context, o, m, p float64, distType string,
	sliderValues []float64, confidence string, target float64, seed int64) error {

	est, err := estimate.NewEstimate(o, m, p)
	if err != nil {
		return err
	}
	typ, err := distribution.ParseDistributionType(distType)
	if err != nil {
		return err
	}
	sliders, err := parseSliderFlags(sliderValues)
	if err != nil {
		return err
	}
	if sliders == nil {
		return fmt.Errorf("reshape requires --sliders with %d values", estimate.SliderCount)
	}
	tag, err := estimate.ParseConfidenceTag(confidence)
	if err != nil {
		return err
	}

	rngAdapter := rng.New()
	stream, err := rngAdapter.SeededStream(ctx, "reshape", seed)
	if err != nil {
		return err
	}
	baseline, err := generators.Generate(est, typ, 0, stream)
	if err != nil {
		return err
	}

	var result distribution.ReshapedResult
	if target > 0 {
		result = reshape.ReshapeToward(baseline.PDF, baseline.CDF, est, *sliders, tag, target)
	} else {
		result = reshape.Reshape(baseline.PDF, baseline.CDF, est, *sliders, tag)
	}
	if result.Err != nil {
		return result.Err
	}

	return printJSON(map[string]interface{}{
		"estimate":         est,
		"sliders":          sliders,
		"calculation_mode": result.Mode,
		"feedback_message": result.Feedback,
		"pdf":              result.PDF,
		"cdf":              result.CDF,
	})
}

func runOptimize(ctx context.Context, searchCfg optimizer.Config, o, m, p, target float64,
	distType string, adaptive bool, probeLevel int, direction, confidence string, seed int64) error {

	rngAdapter := rng.New()
	svc := app.NewEstimatorService(rngAdapter, searchCfg)

	batch, err := svc.ProcessBatch(ctx, app.BatchRequest{
		Tasks: []ports.TaskRecord{
			{
				Name:            "cli",
				Optimistic:      o,
				MostLikely:      m,
				Pessimistic:     p,
				TargetValue:     &target,
				ConfidenceLevel: confidence,
				Optimize:        true,
				Adaptive:        adaptive,
				ProbeLevel:      probeLevel,
				Direction:       direction,
			},
		},
		DistributionType: distribution.DistributionType(distType),
		Seed:             seed,
	})
	if err != nil {
		return err
	}

	result := batch.Results[0]
	if result.Error != "" {
		return fmt.Errorf("%s", result.Error)
	}

	out := map[string]interface{}{
		"target":        target,
		"probabilities": result.Probabilities,
		"optimized":     result.Fixed,
	}
	if result.Adaptive != nil {
		out["adaptive_optimized"] = result.Adaptive
	}
	return printJSON(out)
}

func runBatch(ctx context.Context, searchCfg optimizer.Config, taskFile, output, distType string,
	parallelism int, seed int64) error {

	tasks, err := excel.NewTaskReader(taskFile).ReadTasks(ctx)
	if err != nil {
		return err
	}

	rngAdapter := rng.New()
	svc := app.NewEstimatorService(rngAdapter, searchCfg)

	batch, err := svc.ProcessBatch(ctx, app.BatchRequest{
		Tasks:            tasks,
		DistributionType: distribution.DistributionType(distType),
		Seed:             seed,
		Parallelism:      parallelism,
	})
	if err != nil {
		return err
	}

	records := app.Summarize(batch.Results)

	if output == "" {
		return printJSON(records)
	}
	if err := excel.NewResultWriter(output).WriteResults(ctx, records); err != nil {
		return err
	}
	fmt.Printf("Wrote %d results to %s (batch %s, %dms)\n",
		len(records), output, batch.BatchID, batch.RuntimeMs)
	return nil
}
