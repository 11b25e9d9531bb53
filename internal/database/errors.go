// Package database defines the storage model shared by all backends: the
// student directory, the voiceprint store and the attendance ledger, plus
// the error taxonomy their implementations report through.
package database

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a student or voiceprint does not exist.
var ErrNotFound = errors.New("not found")

// ErrLedgerUnavailable marks attendance storage failures. Callers decide
// whether a failed mark invalidates the identification that triggered it;
// the stores only classify.
var ErrLedgerUnavailable = errors.New("attendance ledger unavailable")

// ErrDimensionMismatch is returned when a query embedding's dimension
// differs from a stored voiceprint's. It signals a corrupted or mixed-model
// store, never a per-candidate condition to skip.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// LedgerError wraps a storage failure so callers can match it with
// errors.Is(err, ErrLedgerUnavailable) while keeping the cause.
func LedgerError(err error) error {
	return fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
}
