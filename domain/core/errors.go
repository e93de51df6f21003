package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound      = errors.New("resource not found")
	ErrImageNotFound = fmt.Errorf("%w: image", ErrNotFound)
	ErrRunNotFound   = fmt.Errorf("%w: run", ErrNotFound)

	// Validation errors
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidCellTable = errors.New("invalid cell table")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Geometry errors
	ErrDegenerateGeometry = errors.New("degenerate point set")
	ErrUnsupportedDims    = errors.New("unsupported coordinate dimensionality")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrSeedMismatch     = errors.New("seed mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

func NewGeometryError(imageID string, err error) error {
	return fmt.Errorf("%w for image %s: %v", ErrDegenerateGeometry, imageID, err)
}

func NewImageError(imageID string, err error) error {
	return fmt.Errorf("image %s: %w", imageID, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

func IsGeometryError(err error) bool {
	return errors.Is(err, ErrDegenerateGeometry) ||
		errors.Is(err, ErrUnsupportedDims)
}
