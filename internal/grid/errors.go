package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is matched by every *RangeError.
	ErrOutOfRange = errors.New("cell id out of range")

	// ErrInvalidState is returned for values outside the four cell states.
	ErrInvalidState = errors.New("invalid cell state")

	// ErrInvalidTransmission is returned for probabilities outside [0, 1].
	ErrInvalidTransmission = errors.New("transmission probability must be within [0, 1]")
)

// RangeError reports a cell id outside [0, Size).
//
// It signals a programming error at the call site. Nothing inside the package
// recovers from it.
type RangeError struct {
	// Op is the operation that rejected the id ("set", "get", "neighbors").
	Op string

	// ID is the offending cell id.
	ID int

	// Size is rows*cols of the grid.
	Size int
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: cell id %d out of range [0, %d)", e.Op, e.ID, e.Size)
}

// Is makes errors.Is(err, ErrOutOfRange) hold for any *RangeError.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// IsOutOfRange returns true if err is or wraps a *RangeError.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

// DimensionError reports a non-positive row or column count.
type DimensionError struct {
	Rows int
	Cols int
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("grid dimensions must be positive, got %dx%d", e.Rows, e.Cols)
}
