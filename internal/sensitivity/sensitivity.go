// Package sensitivity provides one-at-a-time slider screening and
// confidence-interval extraction over reshaped distributions.
package sensitivity

import (
	"fmt"

	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
	"pmcestimator/internal/numeric"
	"pmcestimator/internal/reshape"
)

// DefaultPerturbation is the UI-unit step used for one-at-a-time screening
const DefaultPerturbation = 10.0

// Effect reports how perturbing one slider moves the target probability
// while every other slider holds its current setting
type Effect struct {
	Slider    string  `json:"slider"`
	Setting   float64 `json:"setting"`
	DeltaUp   float64 `json:"delta_up"`   // P change when the slider rises by the step
	DeltaDown float64 `json:"delta_down"` // P change when the slider drops by the step
}

// SliderSensitivity perturbs each slider one at a time and reports the
// resulting change in P(X <= target). A one-factor-at-a-time screening:
// it surfaces which levers matter most, not interaction effects.
func SliderSensitivity(baselinePDF, baselineCDF distribution.Points, est estimate.Estimate,
	sliders estimate.SliderVector, tag estimate.ConfidenceTag, target float64, step float64) ([]Effect, error) {

	if step <= 0 {
		step = DefaultPerturbation
	}

	current := reshape.ReshapeToward(baselinePDF, baselineCDF, est, sliders, tag, target)
	if current.Err != nil {
		return nil, fmt.Errorf("sensitivity base reshape: %w", current.Err)
	}
	currentProb := numeric.InterpolateCDF(current.CDF, target)

	names := estimate.SliderNames()
	values := sliders.Values()

	probeAt := func(idx int, value float64) (float64, error) {
		probe := values
		probe[idx] = value
		res := reshape.ReshapeToward(baselinePDF, baselineCDF, est,
			estimate.FromValues(probe).Clamped(), tag, target)
		if res.Err != nil {
			return 0, res.Err
		}
		return numeric.InterpolateCDF(res.CDF, target), nil
	}

	effects := make([]Effect, estimate.SliderCount)
	for i := 0; i < estimate.SliderCount; i++ {
		up, err := probeAt(i, values[i]+step)
		if err != nil {
			return nil, fmt.Errorf("sensitivity probe %s up: %w", names[i], err)
		}
		down, err := probeAt(i, values[i]-step)
		if err != nil {
			return nil, fmt.Errorf("sensitivity probe %s down: %w", names[i], err)
		}

		effects[i] = Effect{
			Slider:    names[i],
			Setting:   values[i],
			DeltaUp:   up - currentProb,
			DeltaDown: down - currentProb,
		}
	}
	return effects, nil
}
