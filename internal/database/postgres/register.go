package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/kozaktomas/voice-attendance/internal/database"
)

// Registrar implements atomic enrollment over a single SQL transaction.
type Registrar struct {
	pool *Pool
}

// NewRegistrar creates a new registrar.
func NewRegistrar(pool *Pool) *Registrar {
	return &Registrar{pool: pool}
}

// Register stores the student and voiceprint in one transaction.
func (r *Registrar) Register(ctx context.Context, student database.Student, embedding []float32) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment of %s: %w", student.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO students (id, name, standard, division, year, roll_no, emergency_contact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			standard = EXCLUDED.standard,
			division = EXCLUDED.division,
			year = EXCLUDED.year,
			roll_no = EXCLUDED.roll_no,
			emergency_contact = EXCLUDED.emergency_contact
	`, student.ID, student.Name, student.Standard, student.Division,
		student.Year, student.RollNo, student.EmergencyContact,
	)
	if err != nil {
		return fmt.Errorf("enrolling student %s: %w", student.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO voiceprints (student_id, embedding, dim, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (student_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			dim = EXCLUDED.dim,
			created_at = NOW()
	`, student.ID, pgvector.NewVector(embedding), len(embedding))
	if err != nil {
		return fmt.Errorf("enrolling voiceprint for %s: %w", student.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment of %s: %w", student.ID, err)
	}
	return nil
}

// Unregister removes the student and voiceprint in one transaction.
// The voiceprint row is covered by ON DELETE CASCADE.
func (r *Registrar) Unregister(ctx context.Context, studentID string) error {
	res, err := r.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", studentID)
	if err != nil {
		return fmt.Errorf("unregistering student %s: %w", studentID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unregistering student %s: %w", studentID, err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}
