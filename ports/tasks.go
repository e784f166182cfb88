package ports

import (
	"context"

	"pmcestimator/domain/estimate"
)

// TaskRecord is one row of a batch request: a three-point estimate plus the
// optional reshaping/optimization knobs.
type TaskRecord struct {
	Name            string                 `json:"task_name"`
	Optimistic      float64                `json:"optimistic"`
	MostLikely      float64                `json:"mostLikely"`
	Pessimistic     float64                `json:"pessimistic"`
	SliderValues    *estimate.SliderVector `json:"sliderValues,omitempty"`
	TargetValue     *float64               `json:"targetValue,omitempty"`
	ConfidenceLevel string                 `json:"confidenceLevel,omitempty"`
	Optimize        bool                   `json:"optimize,omitempty"`
	Adaptive        bool                   `json:"adaptive,omitempty"`
	ProbeLevel      int                    `json:"probeLevel,omitempty"`
	Direction       string                 `json:"direction,omitempty"` // maximize (default) or minimize
}

// ResultRecord is the flat per-task summary written back to external
// surfaces. Point sequences stay in-process; only the reported metrics
// cross the boundary.
type ResultRecord struct {
	Name              string  `json:"task_name"`
	Error             string  `json:"error,omitempty"`
	Original          float64 `json:"original"`
	Adjusted          float64 `json:"adjusted"`
	AdjustedOptimized float64 `json:"adjusted_optimized"`
	AdaptiveOptimized float64 `json:"adaptive_optimized"`
	CalculationMode   string  `json:"calculation_mode,omitempty"`
	Source            string  `json:"source,omitempty"`
	Feedback          string  `json:"feedback_message,omitempty"`
	ChainingDrift     float64 `json:"chaining_drift,omitempty"`
}

// TaskReader loads a batch of task records from an external surface
// (spreadsheet, JSON file). Implementations live in adapters.
type TaskReader interface {
	ReadTasks(ctx context.Context) ([]TaskRecord, error)
}

// ResultWriter persists batch results back to an external surface
type ResultWriter interface {
	WriteResults(ctx context.Context, results []ResultRecord) error
}
