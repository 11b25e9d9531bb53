package roster

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/database/mock"
)

type testStores struct {
	students    *mock.StudentStore
	voiceprints *mock.VoiceprintStore
}

func newTestRoster(t *testing.T) (*Roster, testStores) {
	t.Helper()
	stores := testStores{
		students:    mock.NewStudentStore(),
		voiceprints: mock.NewVoiceprintStore(),
	}
	return New(stores.students, stores.voiceprints, nil), stores
}

func TestRegisterRoundTrip(t *testing.T) {
	r, _ := newTestRoster(t)
	ctx := context.Background()

	stored, err := r.Register(ctx, database.Student{ID: "s1", Name: "Mia Novak", RollNo: "12"}, []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if stored.ID != "s1" {
		t.Errorf("stored ID = %q, want s1", stored.ID)
	}

	found, err := r.Find(ctx, "s1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Name != "Mia Novak" {
		t.Errorf("Find = %+v", found)
	}

	vp, err := r.Voiceprint(ctx, "s1")
	if err != nil {
		t.Fatalf("Voiceprint: %v", err)
	}
	if vp.Dim != 3 {
		t.Errorf("voiceprint dim = %d, want 3", vp.Dim)
	}
}

func TestRegisterGeneratesID(t *testing.T) {
	r, _ := newTestRoster(t)

	stored, err := r.Register(context.Background(), database.Student{Name: "Mia"}, []float32{1})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if stored.ID == "" {
		t.Error("expected a generated ID")
	}
	if stored.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestRoster(t)
	ctx := context.Background()

	if _, err := r.Register(ctx, database.Student{Name: "   "}, []float32{1}); err == nil {
		t.Error("expected error for blank name")
	}
	if _, err := r.Register(ctx, database.Student{Name: "Mia"}, nil); err == nil {
		t.Error("expected error for missing embedding")
	}
}

func TestRegisterOverwrite(t *testing.T) {
	r, _ := newTestRoster(t)
	ctx := context.Background()

	if _, err := r.Register(ctx, database.Student{ID: "s1", Name: "Mia"}, []float32{1, 0}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := r.Register(ctx, database.Student{ID: "s1", Name: "Mia Novak"}, []float32{0, 1}); err != nil {
		t.Fatalf("re-Register: %v", err)
	}

	found, err := r.Find(ctx, "s1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Name != "Mia Novak" {
		t.Errorf("metadata not overwritten: %+v", found)
	}
	vp, err := r.Voiceprint(ctx, "s1")
	if err != nil {
		t.Fatalf("Voiceprint: %v", err)
	}
	if vp.Embedding[0] != 0 || vp.Embedding[1] != 1 {
		t.Errorf("voiceprint not overwritten: %v", vp.Embedding)
	}
}

func TestRegisterRollsBackOnVoiceprintFailure(t *testing.T) {
	r, stores := newTestRoster(t)
	ctx := context.Background()

	stores.voiceprints.PutError = errors.New("disk full")
	if _, err := r.Register(ctx, database.Student{ID: "s1", Name: "Mia"}, []float32{1}); err == nil {
		t.Fatal("expected Register to fail")
	}

	// The metadata write must have been rolled back.
	if _, err := r.Find(ctx, "s1"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("student left behind after failed enrollment: %v", err)
	}
}

func TestRegisterRollbackRestoresPrevious(t *testing.T) {
	r, stores := newTestRoster(t)
	ctx := context.Background()

	if _, err := r.Register(ctx, database.Student{ID: "s1", Name: "Mia"}, []float32{1}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	stores.voiceprints.PutError = errors.New("disk full")
	if _, err := r.Register(ctx, database.Student{ID: "s1", Name: "Renamed"}, []float32{2}); err == nil {
		t.Fatal("expected re-Register to fail")
	}
	stores.voiceprints.PutError = nil

	found, err := r.Find(ctx, "s1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Name != "Mia" {
		t.Errorf("previous record not restored: %+v", found)
	}
}

func TestRemove(t *testing.T) {
	r, _ := newTestRoster(t)
	ctx := context.Background()

	if _, err := r.Register(ctx, database.Student{ID: "s1", Name: "Mia"}, []float32{1}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Remove(ctx, "s1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := r.Find(ctx, "s1"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Find after Remove = %v, want ErrNotFound", err)
	}
	if _, err := r.Voiceprint(ctx, "s1"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Voiceprint after Remove = %v, want ErrNotFound", err)
	}
	if err := r.Remove(ctx, "s1"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	r, _ := newTestRoster(t)
	ctx := context.Background()

	students := []database.Student{
		{ID: "s1", Name: "Jiří Svoboda", RollNo: "A12"},
		{ID: "s2", Name: "Anna-Marie Dvořák", RollNo: "B07"},
		{ID: "s3", Name: "Omar Hassan", RollNo: "C03"},
	}
	for _, s := range students {
		if _, err := r.Register(ctx, s, []float32{1}); err != nil {
			t.Fatalf("Register %s: %v", s.ID, err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"jiri", []string{"s1"}},        // diacritics ignored
		{"anna marie", []string{"s2"}},  // dash treated as space
		{"a12", []string{"s1"}},         // roll number, case-insensitive
		{"hassan", []string{"s3"}},
		{"", []string{"s1", "s2", "s3"}}, // empty query returns all
		{"nobody", nil},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			got, err := r.Search(ctx, tc.query)
			if err != nil {
				t.Fatalf("Search(%q): %v", tc.query, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Search(%q) returned %d students, want %d", tc.query, len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("Search(%q)[%d] = %q, want %q", tc.query, i, got[i].ID, id)
				}
			}
		})
	}
}

func TestExportCSV(t *testing.T) {
	var buf strings.Builder
	students := []database.Student{
		{ID: "s1", Name: "Mia Novak", RollNo: "12", Standard: "5", Division: "A", Year: "2024", EmergencyContact: "+420123456789"},
	}
	if err := ExportCSV(&buf, students); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
	if lines[0] != "Name,Roll No,Standard,Division,Year,Emergency Contact" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Mia Novak") || !strings.Contains(lines[1], "+420123456789") {
		t.Errorf("row = %q", lines[1])
	}
}
