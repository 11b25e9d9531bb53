package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kozaktomas/voice-attendance/internal/database"
)

// Register writes the student record and its voiceprint in one transaction,
// so a crash can never leave a student without a voiceprint or vice versa.
func (s *Store) Register(ctx context.Context, student database.Student, embedding []float32) error {
	studentData, err := json.Marshal(student)
	if err != nil {
		return fmt.Errorf("encoding student %s: %w", student.ID, err)
	}
	vpData, err := encodeVoiceprint(student.ID, embedding)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(studentKey(student.ID), studentData); err != nil {
			return err
		}
		return txn.Set(voiceprintKey(student.ID), vpData)
	})
	if err != nil {
		return fmt.Errorf("registering student %s: %w", student.ID, err)
	}
	return nil
}

// Unregister removes the student record and its voiceprint in one
// transaction. Attendance history is kept; the ledger references students
// by ID only.
func (s *Store) Unregister(ctx context.Context, studentID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(studentKey(studentID)); err != nil {
			return err
		}
		if err := txn.Delete(studentKey(studentID)); err != nil {
			return err
		}
		return txn.Delete(voiceprintKey(studentID))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return database.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("unregistering student %s: %w", studentID, err)
	}
	return nil
}
