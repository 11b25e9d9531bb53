// Package mock provides in-memory implementations of database interfaces
// for testing.
package mock

import (
	"context"
	"iter"
	"sort"
	"sync"

	"github.com/kozaktomas/voice-attendance/internal/database"
)

// StudentStore is an in-memory implementation of database.StudentStore.
type StudentStore struct {
	mu       sync.RWMutex
	students map[string]database.Student

	// Error injection
	SaveError   error
	FindError   error
	ListError   error
	DeleteError error
}

// NewStudentStore creates a new mock student store.
func NewStudentStore() *StudentStore {
	return &StudentStore{students: make(map[string]database.Student)}
}

// Save stores or overwrites a student record.
func (m *StudentStore) Save(ctx context.Context, student database.Student) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[student.ID] = student
	return nil
}

// Find retrieves a student by ID.
func (m *StudentStore) Find(ctx context.Context, id string) (*database.Student, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &s, nil
}

// List iterates over all students in ascending ID order.
func (m *StudentStore) List(ctx context.Context) iter.Seq2[database.Student, error] {
	return func(yield func(database.Student, error) bool) {
		if m.ListError != nil {
			yield(database.Student{}, m.ListError)
			return
		}
		m.mu.RLock()
		ids := make([]string, 0, len(m.students))
		for id := range m.students {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		snapshot := make([]database.Student, 0, len(ids))
		for _, id := range ids {
			snapshot = append(snapshot, m.students[id])
		}
		m.mu.RUnlock()

		for _, s := range snapshot {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Delete removes a student record.
func (m *StudentStore) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.students, id)
	return nil
}

// VoiceprintStore is an in-memory implementation of database.VoiceprintStore.
type VoiceprintStore struct {
	mu          sync.RWMutex
	voiceprints map[string]database.StoredVoiceprint

	// Error injection
	PutError    error
	GetError    error
	AllError    error
	DeleteError error
	CountError  error
}

// NewVoiceprintStore creates a new mock voiceprint store.
func NewVoiceprintStore() *VoiceprintStore {
	return &VoiceprintStore{voiceprints: make(map[string]database.StoredVoiceprint)}
}

// Put stores or overwrites the voiceprint for a student.
func (m *VoiceprintStore) Put(ctx context.Context, studentID string, embedding []float32) error {
	if m.PutError != nil {
		return m.PutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voiceprints[studentID] = database.StoredVoiceprint{
		StudentID: studentID,
		Embedding: embedding,
		Dim:       len(embedding),
	}
	return nil
}

// Get retrieves the voiceprint for a student.
func (m *VoiceprintStore) Get(ctx context.Context, studentID string) (*database.StoredVoiceprint, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	vp, ok := m.voiceprints[studentID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &vp, nil
}

// All iterates over every stored voiceprint in ascending student ID order.
func (m *VoiceprintStore) All(ctx context.Context) iter.Seq2[database.StoredVoiceprint, error] {
	return func(yield func(database.StoredVoiceprint, error) bool) {
		if m.AllError != nil {
			yield(database.StoredVoiceprint{}, m.AllError)
			return
		}
		m.mu.RLock()
		ids := make([]string, 0, len(m.voiceprints))
		for id := range m.voiceprints {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		snapshot := make([]database.StoredVoiceprint, 0, len(ids))
		for _, id := range ids {
			snapshot = append(snapshot, m.voiceprints[id])
		}
		m.mu.RUnlock()

		for _, vp := range snapshot {
			if !yield(vp, nil) {
				return
			}
		}
	}
}

// Delete removes the voiceprint for a student.
func (m *VoiceprintStore) Delete(ctx context.Context, studentID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.voiceprints[studentID]; !ok {
		return database.ErrNotFound
	}
	delete(m.voiceprints, studentID)
	return nil
}

// Count returns the number of stored voiceprints.
func (m *VoiceprintStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.voiceprints), nil
}

// AttendanceStore is an in-memory implementation of database.AttendanceStore.
type AttendanceStore struct {
	mu   sync.RWMutex
	days map[string]map[string]struct{}

	// Error injection
	MarkError    error
	PresentError error
	AllError     error
}

// NewAttendanceStore creates a new mock attendance store.
func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{days: make(map[string]map[string]struct{})}
}

// MarkPresent records a student as present on a date.
func (m *AttendanceStore) MarkPresent(ctx context.Context, studentID, date string) error {
	if m.MarkError != nil {
		return database.LedgerError(m.MarkError)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.days[date] == nil {
		m.days[date] = make(map[string]struct{})
	}
	m.days[date][studentID] = struct{}{}
	return nil
}

// Present returns the sorted student IDs recorded for a date.
func (m *AttendanceStore) Present(ctx context.Context, date string) ([]string, error) {
	if m.PresentError != nil {
		return nil, database.LedgerError(m.PresentError)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.days[date]))
	for id := range m.days[date] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// All returns every recorded date mapped to its sorted student IDs.
func (m *AttendanceStore) All(ctx context.Context) (map[string][]string, error) {
	if m.AllError != nil {
		return nil, database.LedgerError(m.AllError)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]string, len(m.days))
	for date, set := range m.days {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		result[date] = ids
	}
	return result, nil
}
