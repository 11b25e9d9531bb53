package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/pgvector/pgvector-go"
	"github.com/kozaktomas/voice-attendance/internal/database"
)

// VoiceprintRepository provides PostgreSQL-backed voiceprint storage using
// the pgvector extension.
type VoiceprintRepository struct {
	pool *Pool
}

// NewVoiceprintRepository creates a new voiceprint repository.
func NewVoiceprintRepository(pool *Pool) *VoiceprintRepository {
	return &VoiceprintRepository{pool: pool}
}

// Put stores or overwrites the voiceprint for a student.
func (r *VoiceprintRepository) Put(ctx context.Context, studentID string, embedding []float32) error {
	query := `
		INSERT INTO voiceprints (student_id, embedding, dim, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (student_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			dim = EXCLUDED.dim,
			created_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, studentID, pgvector.NewVector(embedding), len(embedding))
	if err != nil {
		return fmt.Errorf("saving voiceprint for %s: %w", studentID, err)
	}
	return nil
}

// Get retrieves the voiceprint for a student.
func (r *VoiceprintRepository) Get(ctx context.Context, studentID string) (*database.StoredVoiceprint, error) {
	query := `
		SELECT student_id, embedding, dim, created_at
		FROM voiceprints
		WHERE student_id = $1
	`
	var vp database.StoredVoiceprint
	var vec pgvector.Vector
	err := r.pool.QueryRow(ctx, query, studentID).Scan(&vp.StudentID, &vec, &vp.Dim, &vp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query voiceprint for %s: %w", studentID, err)
	}
	vp.Embedding = vec.Slice()
	return &vp, nil
}

// All iterates over every stored voiceprint in ascending student ID order.
func (r *VoiceprintRepository) All(ctx context.Context) iter.Seq2[database.StoredVoiceprint, error] {
	return func(yield func(database.StoredVoiceprint, error) bool) {
		query := `
			SELECT student_id, embedding, dim, created_at
			FROM voiceprints
			ORDER BY student_id
		`
		rows, err := r.pool.Query(ctx, query)
		if err != nil {
			yield(database.StoredVoiceprint{}, fmt.Errorf("listing voiceprints: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var vp database.StoredVoiceprint
			var vec pgvector.Vector
			if err := rows.Scan(&vp.StudentID, &vec, &vp.Dim, &vp.CreatedAt); err != nil {
				if !yield(database.StoredVoiceprint{}, fmt.Errorf("scan voiceprint: %w", err)) {
					return
				}
				continue
			}
			vp.Embedding = vec.Slice()
			if !yield(vp, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(database.StoredVoiceprint{}, fmt.Errorf("iterating voiceprints: %w", err))
		}
	}
}

// Delete removes the voiceprint for a student.
func (r *VoiceprintRepository) Delete(ctx context.Context, studentID string) error {
	res, err := r.pool.Exec(ctx, "DELETE FROM voiceprints WHERE student_id = $1", studentID)
	if err != nil {
		return fmt.Errorf("deleting voiceprint for %s: %w", studentID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting voiceprint for %s: %w", studentID, err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Count returns the number of stored voiceprints.
func (r *VoiceprintRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM voiceprints").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count voiceprints: %w", err)
	}
	return count, nil
}
