// Package roster manages the student directory: enrollment metadata, the
// paired voiceprint lifecycle, search, and derived grouping views.
package roster

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/voice-attendance/internal/database"
)

// Roster is the enrollment and directory service. A student record and its
// voiceprint are created together, overwritten together on re-enrollment,
// and deleted together on removal.
type Roster struct {
	students    database.StudentStore
	voiceprints database.VoiceprintStore
	registrar   database.Registrar // optional, for atomic enrollment
}

// New creates a roster over the given stores. registrar may be nil; the
// roster then falls back to sequential writes with rollback.
func New(students database.StudentStore, voiceprints database.VoiceprintStore, registrar database.Registrar) *Roster {
	return &Roster{
		students:    students,
		voiceprints: voiceprints,
		registrar:   registrar,
	}
}

// Register enrolls a student with their voice embedding. Re-registering an
// existing ID overwrites both records; that is the supported re-enrollment
// path, not an error. A missing ID gets a generated one. Returns the stored
// student.
//
// With no atomic registrar, metadata is written first and rolled back if the
// voiceprint write fails, so the directory never holds a student without a
// voiceprint.
func (r *Roster) Register(ctx context.Context, student database.Student, embedding []float32) (*database.Student, error) {
	if strings.TrimSpace(student.Name) == "" {
		return nil, fmt.Errorf("student name is required")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("voice embedding is required")
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}

	if r.registrar != nil {
		if err := r.registrar.Register(ctx, student, embedding); err != nil {
			return nil, err
		}
		return &student, nil
	}

	existing, err := r.students.Find(ctx, student.ID)
	if err != nil && err != database.ErrNotFound {
		return nil, fmt.Errorf("checking existing enrollment: %w", err)
	}

	if err := r.students.Save(ctx, student); err != nil {
		return nil, err
	}
	if err := r.voiceprints.Put(ctx, student.ID, embedding); err != nil {
		// Roll back the metadata write so no student exists without a
		// voiceprint.
		if existing != nil {
			r.students.Save(ctx, *existing)
		} else {
			r.students.Delete(ctx, student.ID)
		}
		return nil, fmt.Errorf("storing voiceprint: %w", err)
	}
	return &student, nil
}

// Remove deletes a student and their voiceprint. Returns
// database.ErrNotFound if the student does not exist.
func (r *Roster) Remove(ctx context.Context, id string) error {
	if r.registrar != nil {
		return r.registrar.Unregister(ctx, id)
	}

	if err := r.students.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.voiceprints.Delete(ctx, id); err != nil && err != database.ErrNotFound {
		return fmt.Errorf("removing voiceprint: %w", err)
	}
	return nil
}

// Find retrieves a student by ID.
func (r *Roster) Find(ctx context.Context, id string) (*database.Student, error) {
	return r.students.Find(ctx, id)
}

// List iterates over all students in ascending ID order.
func (r *Roster) List(ctx context.Context) iter.Seq2[database.Student, error] {
	return r.students.List(ctx)
}

// Search returns students whose normalized name or roll number contains the
// query substring. An empty query returns all students.
func (r *Roster) Search(ctx context.Context, query string) ([]database.Student, error) {
	query = NormalizeName(strings.TrimSpace(query))

	var results []database.Student
	for s, err := range r.students.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("searching students: %w", err)
		}
		if query == "" ||
			strings.Contains(NormalizeName(s.Name), query) ||
			strings.Contains(strings.ToLower(s.RollNo), query) {
			results = append(results, s)
		}
	}
	return results, nil
}

// Voiceprint returns the stored embedding for a student.
func (r *Roster) Voiceprint(ctx context.Context, id string) (*database.StoredVoiceprint, error) {
	return r.voiceprints.Get(ctx, id)
}
