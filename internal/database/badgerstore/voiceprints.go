package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kozaktomas/voice-attendance/internal/database"
)

// VoiceprintRepository stores voice embeddings as JSON under voiceprint:<id>.
type VoiceprintRepository struct {
	db *badger.DB
}

// Put stores or overwrites the voiceprint for a student.
func (r *VoiceprintRepository) Put(ctx context.Context, studentID string, embedding []float32) error {
	data, err := encodeVoiceprint(studentID, embedding)
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(voiceprintKey(studentID), data)
	})
	if err != nil {
		return fmt.Errorf("saving voiceprint for %s: %w", studentID, err)
	}
	return nil
}

// Get retrieves the voiceprint for a student.
func (r *VoiceprintRepository) Get(ctx context.Context, studentID string) (*database.StoredVoiceprint, error) {
	var vp database.StoredVoiceprint
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(voiceprintKey(studentID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &vp)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading voiceprint for %s: %w", studentID, err)
	}
	return &vp, nil
}

// All iterates over every stored voiceprint in ascending student ID order.
func (r *VoiceprintRepository) All(ctx context.Context) iter.Seq2[database.StoredVoiceprint, error] {
	return func(yield func(database.StoredVoiceprint, error) bool) {
		prefix := []byte(voiceprintPrefix)
		err := r.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefix
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				var vp database.StoredVoiceprint
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &vp)
				})
				if err != nil {
					if !yield(database.StoredVoiceprint{}, err) {
						return nil
					}
					continue
				}
				if !yield(vp, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(database.StoredVoiceprint{}, fmt.Errorf("listing voiceprints: %w", err))
		}
	}
}

// Delete removes the voiceprint for a student.
func (r *VoiceprintRepository) Delete(ctx context.Context, studentID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(voiceprintKey(studentID)); err != nil {
			return err
		}
		return txn.Delete(voiceprintKey(studentID))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return database.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting voiceprint for %s: %w", studentID, err)
	}
	return nil
}

// Count returns the number of stored voiceprints.
func (r *VoiceprintRepository) Count(ctx context.Context) (int, error) {
	count := 0
	prefix := []byte(voiceprintPrefix)
	err := r.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting voiceprints: %w", err)
	}
	return count, nil
}

func encodeVoiceprint(studentID string, embedding []float32) ([]byte, error) {
	vp := database.StoredVoiceprint{
		StudentID: studentID,
		Embedding: embedding,
		Dim:       len(embedding),
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(vp)
	if err != nil {
		return nil, fmt.Errorf("encoding voiceprint for %s: %w", studentID, err)
	}
	return data, nil
}
