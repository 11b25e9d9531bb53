// Package attendance maintains the date-partitioned presence ledger and
// derives read-only reports from it.
package attendance

import (
	"context"
	"time"

	"github.com/kozaktomas/voice-attendance/internal/database"
)

// Ledger records which students were present on which days. It is a thin
// layer over the attendance store that normalizes timestamps to calendar
// days.
type Ledger struct {
	store database.AttendanceStore
}

// NewLedger creates a ledger over the given store.
func NewLedger(store database.AttendanceStore) *Ledger {
	return &Ledger{store: store}
}

// MarkPresent records a student as present on the day of t. Repeated calls
// for the same student and day leave the ledger unchanged.
func (l *Ledger) MarkPresent(ctx context.Context, studentID string, t time.Time) error {
	return l.store.MarkPresent(ctx, studentID, database.Day(t))
}

// Present returns the sorted student IDs recorded for the day of t. A day
// with no recorded activity yields an empty slice, never an error.
func (l *Ledger) Present(ctx context.Context, t time.Time) ([]string, error) {
	return l.store.Present(ctx, database.Day(t))
}

// PresentOn is Present for an already formatted YYYY-MM-DD date.
func (l *Ledger) PresentOn(ctx context.Context, date string) ([]string, error) {
	return l.store.Present(ctx, date)
}

// All returns every recorded date mapped to its sorted student IDs.
func (l *Ledger) All(ctx context.Context) (map[string][]string, error) {
	return l.store.All(ctx)
}
