package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/voice-attendance/internal/database"
)

// AttendanceRepository is the PostgreSQL-backed attendance ledger. The
// (date, student_id) primary key gives set semantics; ON CONFLICT DO NOTHING
// makes MarkPresent idempotent.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkPresent records a student as present on a date.
func (r *AttendanceRepository) MarkPresent(ctx context.Context, studentID, date string) error {
	if !database.ValidDay(date) {
		return fmt.Errorf("invalid attendance date %q", date)
	}
	query := `
		INSERT INTO attendance (date, student_id)
		VALUES ($1, $2)
		ON CONFLICT (date, student_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, date, studentID)
	if err != nil {
		return database.LedgerError(fmt.Errorf("marking %s present on %s: %w", studentID, date, err))
	}
	return nil
}

// Present returns the sorted student IDs recorded for a date.
func (r *AttendanceRepository) Present(ctx context.Context, date string) ([]string, error) {
	query := `
		SELECT student_id
		FROM attendance
		WHERE date = $1
		ORDER BY student_id
	`
	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, database.LedgerError(fmt.Errorf("reading attendance for %s: %w", date, err))
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, database.LedgerError(fmt.Errorf("scan attendance row: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, database.LedgerError(fmt.Errorf("iterating attendance for %s: %w", date, err))
	}
	return ids, nil
}

// All returns every recorded date mapped to its sorted student IDs.
func (r *AttendanceRepository) All(ctx context.Context) (map[string][]string, error) {
	query := `
		SELECT date, student_id
		FROM attendance
		ORDER BY date, student_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, database.LedgerError(fmt.Errorf("reading attendance ledger: %w", err))
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var day time.Time
		var id string
		if err := rows.Scan(&day, &id); err != nil {
			return nil, database.LedgerError(fmt.Errorf("scan attendance row: %w", err))
		}
		date := database.Day(day)
		result[date] = append(result[date], id)
	}
	if err := rows.Err(); err != nil {
		return nil, database.LedgerError(fmt.Errorf("iterating attendance ledger: %w", err))
	}
	return result, nil
}
