package ml

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactUnavailable means the model or scaler could not be loaded.
	// Nothing can be predicted without them.
	ErrArtifactUnavailable = errors.New("model artifact unavailable")
	ErrDimensionMismatch   = errors.New("feature dimension mismatch")
	ErrInputOutOfRange     = errors.New("input out of range")
	ErrUnknownCategory     = errors.New("unknown category")
)

type DimensionError struct {
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("feature dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

func (e *DimensionError) Is(target error) bool { return target == ErrDimensionMismatch }

type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, e.Max, e.Value)
}

func (e *RangeError) Is(target error) bool { return target == ErrInputOutOfRange }
