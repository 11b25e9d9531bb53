package badgerstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kozaktomas/voice-attendance/internal/database"
)

// AttendanceRepository is the badger-backed attendance ledger. Presence is
// stored as one key per (date, student) pair, which makes MarkPresent
// naturally idempotent and keeps set semantics without read-modify-write.
type AttendanceRepository struct {
	db *badger.DB
}

// MarkPresent records a student as present on a date. Writing an existing
// key is a no-op at the value level, so repeated calls leave the ledger
// unchanged.
func (r *AttendanceRepository) MarkPresent(ctx context.Context, studentID, date string) error {
	if !database.ValidDay(date) {
		return fmt.Errorf("invalid attendance date %q", date)
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(attendanceKey(date, studentID), nil)
	})
	if err != nil {
		return database.LedgerError(fmt.Errorf("marking %s present on %s: %w", studentID, date, err))
	}
	return nil
}

// Present returns the sorted student IDs recorded for a date.
func (r *AttendanceRepository) Present(ctx context.Context, date string) ([]string, error) {
	ids := []string{}
	prefix := []byte(attendancePrefix + date + ":")
	err := r.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			ids = append(ids, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, database.LedgerError(fmt.Errorf("reading attendance for %s: %w", date, err))
	}
	sort.Strings(ids)
	return ids, nil
}

// All returns every recorded date mapped to its sorted student IDs.
func (r *AttendanceRepository) All(ctx context.Context) (map[string][]string, error) {
	result := make(map[string][]string)
	prefix := []byte(attendancePrefix)
	err := r.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			rest := key[len(attendancePrefix):]
			date, id, ok := strings.Cut(rest, ":")
			if !ok {
				continue
			}
			result[date] = append(result[date], id)
		}
		return nil
	})
	if err != nil {
		return nil, database.LedgerError(fmt.Errorf("reading attendance ledger: %w", err))
	}
	for date := range result {
		sort.Strings(result[date])
	}
	return result, nil
}
