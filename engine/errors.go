package engine

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for engine operations.
var (
	// ErrNotFound is returned when no calculator is registered for an ID.
	ErrNotFound = errors.New("engine: calculator not found")

	// ErrNotImplemented is returned when neither a registered algorithm
	// nor a built-in fallback exists for a calculator.
	ErrNotImplemented = errors.New("engine: calculator not implemented")

	// ErrTimeout is returned when a computation exceeds the configured
	// per-call timeout.
	ErrTimeout = errors.New("engine: computation timed out")

	// ErrClosed is returned by Calculate after Close.
	ErrClosed = errors.New("engine: engine is closed")
)

// NotFoundError reports an unknown calculator ID. It unwraps to ErrNotFound.
type NotFoundError struct {
	CalculatorID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("engine: calculator %q not found", e.CalculatorID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ComputationError reports a failed, missing, or timed-out algorithm
// execution, carrying the calculator ID and the duration spent before the
// failure.
type ComputationError struct {
	CalculatorID string
	Duration     time.Duration
	Err          error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("engine: computation failed for %q after %s: %v", e.CalculatorID, e.Duration, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
