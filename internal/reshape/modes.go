package reshape

import (
	"pmcestimator/domain/distribution"
	"pmcestimator/domain/estimate"
)

// Thresholds for the mode decision table, in normalized slider units
const (
	lowImpactThreshold   = 0.30 // below this, sliders barely move the outcome
	uniformSpreadMax     = 0.20 // max-min spread under this reads as uniform
	extremeThreshold     = 0.85 // magnitudes past this are extreme settings
	conflictHighSetting  = 0.60
	conflictLowAllowance = 0.20
)

// modeWeights tunes how much of the copula signal lands as a mean shift vs
// a spread change for each calculation mode
type modeWeights struct {
	ShiftGain float64
	ScaleGain float64
}

var weightsByMode = map[distribution.CalculationMode]modeWeights{
	ModeMultiplicative:   {ShiftGain: 0.5, ScaleGain: 0.5},
	ModeMatrixNonExtreme: {ShiftGain: 1.0, ScaleGain: 0.8},
	ModeMatrixExtreme:    {ShiftGain: 1.4, ScaleGain: 1.2},
}

// Local aliases keep the decision table readable
const (
	ModeMultiplicative   = distribution.ModeMultiplicative
	ModeMatrixNonExtreme = distribution.ModeMatrixNonExtreme
	ModeMatrixExtreme    = distribution.ModeMatrixExtreme
)

// modeRule is one (predicate, mode) row of the decision table
type modeRule struct {
	mode      distribution.CalculationMode
	feedback  string
	predicate func(v estimate.SliderVector, tag estimate.ConfidenceTag) bool
}

// modeRules is evaluated top to bottom; the first matching rule wins.
// A flat ordered table, deliberately not a hierarchy, so each rule can be
// tested in isolation.
var modeRules = []modeRule{
	{
		mode:     ModeMultiplicative,
		feedback: "Applied multiplicative adjustment: confidence tag is 'not confident'.",
		predicate: func(v estimate.SliderVector, tag estimate.ConfidenceTag) bool {
			return tag == estimate.NotConfident
		},
	},
	{
		mode:     ModeMultiplicative,
		feedback: "Applied multiplicative adjustment: all sliders below the low-impact threshold.",
		predicate: func(v estimate.SliderVector, tag estimate.ConfidenceTag) bool {
			return v.MaxMagnitude() < lowImpactThreshold
		},
	},
	{
		mode:     ModeMultiplicative,
		feedback: "Applied multiplicative adjustment: sliders are nearly uniform.",
		predicate: func(v estimate.SliderVector, tag estimate.ConfidenceTag) bool {
			return v.Spread() < uniformSpreadMax
		},
	},
	{
		mode:     ModeMultiplicative,
		feedback: "Applied multiplicative adjustment: sliders point in conflicting directions.",
		predicate: conflictingDirections,
	},
	{
		mode:     ModeMatrixNonExtreme,
		feedback: "Applied matrix adjustment (non-extreme): moderate sliders with confident input.",
		predicate: func(v estimate.SliderVector, tag estimate.ConfidenceTag) bool {
			return tag.AtLeastConfident() && v.MaxMagnitude() < extremeThreshold
		},
	},
	{
		mode:     ModeMatrixExtreme,
		feedback: "Applied matrix adjustment (extreme): near-maximal sliders with very confident input.",
		predicate: func(v estimate.SliderVector, tag estimate.ConfidenceTag) bool {
			return tag == estimate.VeryConfident && v.MaxMagnitude() >= extremeThreshold
		},
	},
}

// conflictingDirections fires when improvement levers are pushed high while
// scope reduction stays low and the opposing rework lever is also raised:
// the settings fight each other, so only the gentle mode is safe.
func conflictingDirections(v estimate.SliderVector, tag estimate.ConfidenceTag) bool {
	norm := v.Normalized()

	anyHigh := false
	for i, u := range norm {
		if effectSigns[i] > 0 && u >= conflictHighSetting {
			anyHigh = true
			break
		}
	}
	reworkHigh := norm[4] >= conflictLowAllowance // rework opposes every other lever
	allowanceLow := norm[3] < conflictLowAllowance

	return anyHigh && allowanceLow && reworkHigh
}

// SelectMode walks the decision table and returns the first matching mode
// with its feedback message. When no rule fires (extreme magnitudes without
// very-confident backing), the gentle multiplicative mode applies.
func SelectMode(v estimate.SliderVector, tag estimate.ConfidenceTag) (distribution.CalculationMode, string) {
	for _, rule := range modeRules {
		if rule.predicate(v, tag) {
			return rule.mode, rule.feedback
		}
	}
	return ModeMultiplicative, "Applied multiplicative adjustment: extreme sliders lack very confident backing."
}
