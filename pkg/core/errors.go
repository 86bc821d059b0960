package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry marks geometry that violates a construction precondition
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrDegenerateVector is returned when a zero-length vector is normalized
	ErrDegenerateVector = fmt.Errorf("%w: degenerate vector", ErrInvalidGeometry)
)
