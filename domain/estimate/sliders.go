package estimate

import (
	"fmt"
	"math"

	"pmcestimator/domain/core"
)

// SliderCount is the fixed cardinality of the slider vocabulary
const SliderCount = 7

// Slider names, in canonical vector order
const (
	SliderBudgetFlexibility       = "budgetFlexibility"
	SliderScheduleFlexibility     = "scheduleFlexibility"
	SliderScopeCertainty          = "scopeCertainty"
	SliderScopeReductionAllowance = "scopeReductionAllowance"
	SliderReworkPercentage        = "reworkPercentage"
	SliderRiskTolerance           = "riskTolerance"
	SliderUserConfidence          = "userConfidence"
)

// SliderNames returns the canonical slider ordering used by vector forms
func SliderNames() [SliderCount]string {
	return [SliderCount]string{
		SliderBudgetFlexibility,
		SliderScheduleFlexibility,
		SliderScopeCertainty,
		SliderScopeReductionAllowance,
		SliderReworkPercentage,
		SliderRiskTolerance,
		SliderUserConfidence,
	}
}

// SliderUpperBounds returns per-slider UI-unit maxima (rework caps at 50)
func SliderUpperBounds() [SliderCount]float64 {
	return [SliderCount]float64{100, 100, 100, 100, 50, 100, 100}
}

// SliderVector holds the seven managerial levers in UI units:
// 0-100 for all sliders except ReworkPercentage which is 0-50.
type SliderVector struct {
	BudgetFlexibility       float64 `json:"budgetFlexibility"`
	ScheduleFlexibility     float64 `json:"scheduleFlexibility"`
	ScopeCertainty          float64 `json:"scopeCertainty"`
	ScopeReductionAllowance float64 `json:"scopeReductionAllowance"`
	ReworkPercentage        float64 `json:"reworkPercentage"`
	RiskTolerance           float64 `json:"riskTolerance"`
	UserConfidence          float64 `json:"userConfidence"`
}

// NewSliderVector creates a validated slider vector from UI-unit values
// in canonical order
func NewSliderVector(values [SliderCount]float64) (SliderVector, error) {
	v := FromValues(values)
	if err := v.Validate(); err != nil {
		return SliderVector{}, err
	}
	return v, nil
}

// NeutralSliders returns the all-zero vector (no managerial lever applied)
func NeutralSliders() SliderVector {
	return SliderVector{}
}

// FromValues builds a vector from canonical-order UI-unit values without validation
func FromValues(values [SliderCount]float64) SliderVector {
	return SliderVector{
		BudgetFlexibility:       values[0],
		ScheduleFlexibility:     values[1],
		ScopeCertainty:          values[2],
		ScopeReductionAllowance: values[3],
		ReworkPercentage:        values[4],
		RiskTolerance:           values[5],
		UserConfidence:          values[6],
	}
}

// Values returns the UI-unit values in canonical order
func (v SliderVector) Values() [SliderCount]float64 {
	return [SliderCount]float64{
		v.BudgetFlexibility,
		v.ScheduleFlexibility,
		v.ScopeCertainty,
		v.ScopeReductionAllowance,
		v.ReworkPercentage,
		v.RiskTolerance,
		v.UserConfidence,
	}
}

// Validate rejects non-finite or out-of-range values
func (v SliderVector) Validate() error {
	names := SliderNames()
	bounds := SliderUpperBounds()
	for i, val := range v.Values() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%w: %s is non-finite", core.ErrInvalidSlider, names[i])
		}
		if val < 0 || val > bounds[i] {
			return fmt.Errorf("%w: %s = %v outside [0, %v]", core.ErrInvalidSlider, names[i], val, bounds[i])
		}
	}
	return nil
}

// Clamped returns a copy with every slider forced into its valid UI range
func (v SliderVector) Clamped() SliderVector {
	bounds := SliderUpperBounds()
	vals := v.Values()
	for i := range vals {
		if math.IsNaN(vals[i]) {
			vals[i] = 0
		}
		vals[i] = math.Max(0, math.Min(bounds[i], vals[i]))
	}
	return FromValues(vals)
}

// Normalized maps UI units to internal units: every slider lands in [0,1],
// ReworkPercentage in [0,0.5] (both are a plain /100).
func (v SliderVector) Normalized() [SliderCount]float64 {
	vals := v.Values()
	for i := range vals {
		vals[i] /= 100
	}
	return vals
}

// IsNeutral reports whether every slider sits at zero
func (v SliderVector) IsNeutral() bool {
	for _, val := range v.Values() {
		if val != 0 {
			return false
		}
	}
	return true
}

// MaxMagnitude returns the largest normalized slider magnitude
func (v SliderVector) MaxMagnitude() float64 {
	max := 0.0
	for _, val := range v.Normalized() {
		if val > max {
			max = val
		}
	}
	return max
}

// Spread returns max - min over the normalized slider values
func (v SliderVector) Spread() float64 {
	norm := v.Normalized()
	min, max := norm[0], norm[0]
	for _, val := range norm[1:] {
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}
	return max - min
}
