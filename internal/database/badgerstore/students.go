package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kozaktomas/voice-attendance/internal/database"
)

// StudentRepository stores student metadata as JSON under student:<id>.
type StudentRepository struct {
	db *badger.DB
}

// Save stores or overwrites a student record.
func (r *StudentRepository) Save(ctx context.Context, student database.Student) error {
	data, err := json.Marshal(student)
	if err != nil {
		return fmt.Errorf("encoding student %s: %w", student.ID, err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(studentKey(student.ID), data)
	})
	if err != nil {
		return fmt.Errorf("saving student %s: %w", student.ID, err)
	}
	return nil
}

// Find retrieves a student by ID.
func (r *StudentRepository) Find(ctx context.Context, id string) (*database.Student, error) {
	var student database.Student
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(studentKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &student)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading student %s: %w", id, err)
	}
	return &student, nil
}

// List iterates over all students in ascending ID order. Each call opens a
// fresh read transaction, so the sequence is restartable and reflects the
// state at iteration start.
func (r *StudentRepository) List(ctx context.Context) iter.Seq2[database.Student, error] {
	return func(yield func(database.Student, error) bool) {
		prefix := []byte(studentPrefix)
		err := r.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefix
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				var student database.Student
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &student)
				})
				if err != nil {
					if !yield(database.Student{}, err) {
						return nil
					}
					continue
				}
				if !yield(student, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(database.Student{}, fmt.Errorf("listing students: %w", err))
		}
	}
}

// Delete removes a student record.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(studentKey(id)); err != nil {
			return err
		}
		return txn.Delete(studentKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return database.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting student %s: %w", id, err)
	}
	return nil
}
