package database

import (
	"context"
	"iter"
)

// VoiceprintStore persists one voice embedding per student.
type VoiceprintStore interface {
	// Put stores or overwrites the voiceprint for a student.
	Put(ctx context.Context, studentID string, embedding []float32) error
	// Get retrieves the voiceprint for a student. Returns ErrNotFound if the
	// student was never enrolled.
	Get(ctx context.Context, studentID string) (*StoredVoiceprint, error)
	// All iterates over every stored voiceprint in ascending student ID
	// order. The sequence is finite, restartable, and reflects the store
	// state at the time iteration starts.
	All(ctx context.Context) iter.Seq2[StoredVoiceprint, error]
	// Delete removes the voiceprint for a student. Returns ErrNotFound if
	// no voiceprint exists.
	Delete(ctx context.Context, studentID string) error
	// Count returns the number of stored voiceprints.
	Count(ctx context.Context) (int, error)
}

// StudentStore persists student directory metadata.
type StudentStore interface {
	// Save stores or overwrites a student record.
	Save(ctx context.Context, student Student) error
	// Find retrieves a student by ID. Returns ErrNotFound if absent.
	Find(ctx context.Context, id string) (*Student, error)
	// List iterates over all students in ascending ID order. The sequence
	// is finite and restartable.
	List(ctx context.Context) iter.Seq2[Student, error]
	// Delete removes a student record. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
}

// AttendanceStore is the date-partitioned attendance ledger. Each date maps
// to a set of student IDs; entries are append-once and idempotent.
type AttendanceStore interface {
	// MarkPresent records a student as present on a date. Calling it again
	// with the same arguments is a no-op, not an error. Storage failures
	// wrap ErrLedgerUnavailable.
	MarkPresent(ctx context.Context, studentID, date string) error
	// Present returns the sorted student IDs recorded for a date. A date
	// with no activity yields an empty slice, never an error.
	Present(ctx context.Context, date string) ([]string, error)
	// All returns every recorded date mapped to its sorted student IDs.
	All(ctx context.Context) (map[string][]string, error)
}

// Registrar is an optional interface for backends that can write a student
// record and its voiceprint atomically. The roster prefers it over
// sequential writes when available.
type Registrar interface {
	// Register stores the student and voiceprint in a single transaction.
	Register(ctx context.Context, student Student, embedding []float32) error
	// Unregister removes both records in a single transaction. Returns
	// ErrNotFound if the student does not exist.
	Unregister(ctx context.Context, studentID string) error
}

// Handle bundles the opened backend repositories with a defined lifecycle:
// opened once at startup, closed at shutdown.
type Handle struct {
	Students    StudentStore
	Voiceprints VoiceprintStore
	Attendance  AttendanceStore

	// Registrar is non-nil when the backend supports atomic enrollment.
	Registrar Registrar

	closeFn func() error
}

// NewHandle creates a handle over the given repositories. closeFn may be nil.
func NewHandle(students StudentStore, voiceprints VoiceprintStore, attendance AttendanceStore, registrar Registrar, closeFn func() error) *Handle {
	return &Handle{
		Students:    students,
		Voiceprints: voiceprints,
		Attendance:  attendance,
		Registrar:   registrar,
		closeFn:     closeFn,
	}
}

// Close releases the underlying backend.
func (h *Handle) Close() error {
	if h.closeFn == nil {
		return nil
	}
	return h.closeFn()
}
