package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/kozaktomas/voice-attendance/internal/database"
)

// StudentRepository provides PostgreSQL-backed student metadata storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Save stores or overwrites a student record.
func (r *StudentRepository) Save(ctx context.Context, student database.Student) error {
	query := `
		INSERT INTO students (id, name, standard, division, year, roll_no, emergency_contact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			standard = EXCLUDED.standard,
			division = EXCLUDED.division,
			year = EXCLUDED.year,
			roll_no = EXCLUDED.roll_no,
			emergency_contact = EXCLUDED.emergency_contact
	`
	_, err := r.pool.Exec(ctx, query,
		student.ID, student.Name, student.Standard, student.Division,
		student.Year, student.RollNo, student.EmergencyContact,
	)
	if err != nil {
		return fmt.Errorf("saving student %s: %w", student.ID, err)
	}
	return nil
}

// Find retrieves a student by ID.
func (r *StudentRepository) Find(ctx context.Context, id string) (*database.Student, error) {
	query := `
		SELECT id, name, standard, division, year, roll_no, emergency_contact, created_at
		FROM students
		WHERE id = $1
	`
	var s database.Student
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Standard, &s.Division,
		&s.Year, &s.RollNo, &s.EmergencyContact, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query student %s: %w", id, err)
	}
	return &s, nil
}

// List iterates over all students in ascending ID order. Each call runs a
// fresh query, so the sequence is restartable.
func (r *StudentRepository) List(ctx context.Context) iter.Seq2[database.Student, error] {
	return func(yield func(database.Student, error) bool) {
		query := `
			SELECT id, name, standard, division, year, roll_no, emergency_contact, created_at
			FROM students
			ORDER BY id
		`
		rows, err := r.pool.Query(ctx, query)
		if err != nil {
			yield(database.Student{}, fmt.Errorf("listing students: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var s database.Student
			err := rows.Scan(
				&s.ID, &s.Name, &s.Standard, &s.Division,
				&s.Year, &s.RollNo, &s.EmergencyContact, &s.CreatedAt,
			)
			if err != nil {
				if !yield(database.Student{}, fmt.Errorf("scan student: %w", err)) {
					return
				}
				continue
			}
			if !yield(s, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(database.Student{}, fmt.Errorf("iterating students: %w", err))
		}
	}
}

// Delete removes a student record. The voiceprint row is removed by the
// ON DELETE CASCADE constraint.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting student %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting student %s: %w", id, err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}
