package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrInvalidEstimate   = errors.New("invalid estimate")
	ErrInvalidSlider     = errors.New("slider out of range")
	ErrInvalidTarget     = errors.New("invalid target value")
	ErrInvalidConfidence = errors.New("invalid confidence level")

	// Numerical-instability errors
	ErrDegenerateRange  = errors.New("degenerate estimate range")
	ErrNonFiniteResult  = errors.New("non-finite intermediate result")
	ErrDegenerateParams = errors.New("degenerate distribution parameters")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewNonFiniteError(stage string, value float64) error {
	return fmt.Errorf("%w: %s produced %v", ErrNonFiniteResult, stage, value)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEstimate) ||
		errors.Is(err, ErrInvalidSlider) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrInvalidConfidence)
}

func IsNumericalError(err error) bool {
	return errors.Is(err, ErrDegenerateRange) ||
		errors.Is(err, ErrNonFiniteResult) ||
		errors.Is(err, ErrDegenerateParams)
}
