package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSampleNotFound  = fmt.Errorf("%w: sample", ErrNotFound)
	ErrSubjectNotFound = fmt.Errorf("%w: subject", ErrNotFound)

	// Data-condition errors raised by the analytical engine
	ErrMissingData      = errors.New("missing data")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUndefinedResult  = errors.New("undefined result")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrSeedMismatch     = errors.New("seed mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewMissingDataError(sample SampleID, reason string) error {
	return fmt.Errorf("%w: sample %s: %s", ErrMissingData, sample, reason)
}

func NewInvalidInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

func NewUndefinedResultError(cellType CellType, reason string) error {
	return fmt.Errorf("%w: cell type %s: %s", ErrUndefinedResult, cellType, reason)
}

func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDataConditionError reports whether err belongs to the engine's data
// condition taxonomy (as opposed to a programming or infrastructure error).
func IsDataConditionError(err error) bool {
	return errors.Is(err, ErrMissingData) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUndefinedResult) ||
		errors.Is(err, ErrInsufficientData)
}
