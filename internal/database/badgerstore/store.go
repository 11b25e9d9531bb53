// Package badgerstore provides an embedded BadgerDB backend for single
// process, offline deployments. All three records (students, voiceprints,
// attendance) live in one database so enrollment can write metadata and
// voiceprint in a single transaction.
package badgerstore

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Key prefixes. The trailing separator keeps prefix scans from matching
// unrelated keys.
const (
	studentPrefix    = "student:"
	voiceprintPrefix = "voiceprint:"
	attendancePrefix = "attendance:"
)

// Store is a BadgerDB-backed implementation of database.Store.
type Store struct {
	db *badger.DB
}

// Options configures the badger store.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB in memory-only mode (no disk persistence).
	// Useful for testing with a real badger engine.
	InMemory bool
}

// Open opens or creates the database.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badgerstore: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(nil)

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// Students returns the student repository.
func (s *Store) Students() *StudentRepository {
	return &StudentRepository{db: s.db}
}

// Voiceprints returns the voiceprint repository.
func (s *Store) Voiceprints() *VoiceprintRepository {
	return &VoiceprintRepository{db: s.db}
}

// Attendance returns the attendance ledger.
func (s *Store) Attendance() *AttendanceRepository {
	return &AttendanceRepository{db: s.db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing badger database: %w", err)
	}
	return nil
}

func studentKey(id string) []byte    { return []byte(studentPrefix + id) }
func voiceprintKey(id string) []byte { return []byte(voiceprintPrefix + id) }

func attendanceKey(date, id string) []byte {
	return []byte(attendancePrefix + date + ":" + id)
}
