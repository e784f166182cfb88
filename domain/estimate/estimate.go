package estimate

import (
	"fmt"
	"math"

	"pmcestimator/domain/core"
)

// Estimate is a three-point (optimistic, most-likely, pessimistic) estimate.
// INVARIANTS:
// - All values finite
// - Optimistic <= MostLikely <= Pessimistic
// - Pessimistic > Optimistic (strictly positive range)
type Estimate struct {
	Optimistic  float64 `json:"optimistic"`
	MostLikely  float64 `json:"most_likely"`
	Pessimistic float64 `json:"pessimistic"`
}

// NewEstimate creates a validated estimate
func NewEstimate(optimistic, mostLikely, pessimistic float64) (Estimate, error) {
	e := Estimate{Optimistic: optimistic, MostLikely: mostLikely, Pessimistic: pessimistic}
	if err := e.Validate(); err != nil {
		return Estimate{}, err
	}
	return e, nil
}

// MustNewEstimate creates an estimate (panics on invalid input)
// Use only in tests and development - production code should handle validation errors
func MustNewEstimate(optimistic, mostLikely, pessimistic float64) Estimate {
	e, err := NewEstimate(optimistic, mostLikely, pessimistic)
	if err != nil {
		panic(err)
	}
	return e
}

// Validate checks the estimate invariants
func (e Estimate) Validate() error {
	for _, v := range []float64{e.Optimistic, e.MostLikely, e.Pessimistic} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value %v", core.ErrInvalidEstimate, v)
		}
	}
	if e.Optimistic > e.MostLikely || e.MostLikely > e.Pessimistic {
		return fmt.Errorf("%w: expected optimistic <= mostLikely <= pessimistic, got (%v, %v, %v)",
			core.ErrInvalidEstimate, e.Optimistic, e.MostLikely, e.Pessimistic)
	}
	if e.Pessimistic <= e.Optimistic {
		return fmt.Errorf("%w: pessimistic (%v) must exceed optimistic (%v)",
			core.ErrDegenerateRange, e.Pessimistic, e.Optimistic)
	}
	return nil
}

// Range returns the estimate span (pessimistic - optimistic)
func (e Estimate) Range() float64 {
	return e.Pessimistic - e.Optimistic
}

// Mean returns the PERT mean (O + 4M + P) / 6
func (e Estimate) Mean() float64 {
	return (e.Optimistic + 4*e.MostLikely + e.Pessimistic) / 6
}

// StdDev returns the PERT standard deviation (P - O) / 6
func (e Estimate) StdDev() float64 {
	return e.Range() / 6
}

// Contains reports whether x lies within [optimistic, pessimistic]
func (e Estimate) Contains(x float64) bool {
	return x >= e.Optimistic && x <= e.Pessimistic
}
