package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: game session", ErrNotFound)

	// Validation errors
	ErrSampleSizeOutOfRange = errors.New("sample size out of range")
	ErrUnknownFamily        = errors.New("unknown distribution family")
	ErrInvalidSessionID     = errors.New("invalid session id")
	ErrInvalidMode          = errors.New("invalid game mode")
	ErrEmptyPopulation      = errors.New("population is empty")

	// Statistics errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateSample = errors.New("sample has zero range")

	// State machine errors
	ErrInvalidTransition = errors.New("invalid game state transition")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewSampleSizeError(n, min, max int) error {
	return fmt.Errorf("%w: n=%d, allowed [%d, %d]", ErrSampleSizeOutOfRange, n, min, max)
}

func NewUnknownFamilyError(tag string) error {
	return fmt.Errorf("%w: %q", ErrUnknownFamily, tag)
}

func NewTransitionError(action string, phase string) error {
	return fmt.Errorf("%w: cannot %s during %s phase", ErrInvalidTransition, action, phase)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrSampleSizeOutOfRange) ||
		errors.Is(err, ErrUnknownFamily) ||
		errors.Is(err, ErrInvalidSessionID) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrEmptyPopulation)
}

func IsStatisticsError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerateSample)
}
