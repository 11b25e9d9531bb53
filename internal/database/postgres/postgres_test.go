//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/database"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	// Run migrations
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestStudentRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewStudentRepository(pool)

	t.Run("SaveAndFind", func(t *testing.T) {
		student := database.Student{
			ID:       "s1",
			Name:     "Mia Novak",
			Standard: "5",
			Division: "A",
			Year:     "2024",
			RollNo:   "12",
		}
		if err := repo.Save(ctx, student); err != nil {
			t.Fatalf("Failed to save student: %v", err)
		}

		got, err := repo.Find(ctx, "s1")
		if err != nil {
			t.Fatalf("Failed to find student: %v", err)
		}
		if got.Name != "Mia Novak" || got.RollNo != "12" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		if err := repo.Save(ctx, database.Student{ID: "s1", Name: "Renamed"}); err != nil {
			t.Fatalf("Failed to overwrite: %v", err)
		}
		got, err := repo.Find(ctx, "s1")
		if err != nil {
			t.Fatalf("Failed to find: %v", err)
		}
		if got.Name != "Renamed" {
			t.Errorf("upsert did not replace record: %+v", got)
		}
	})

	t.Run("FindMissing", func(t *testing.T) {
		if _, err := repo.Find(ctx, "ghost"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListOrdered", func(t *testing.T) {
		if err := repo.Save(ctx, database.Student{ID: "a0", Name: "First"}); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		var ids []string
		for s, err := range repo.List(ctx) {
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			ids = append(ids, s.ID)
		}
		if len(ids) < 2 || ids[0] != "a0" {
			t.Errorf("List order = %v", ids)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(ctx, "a0"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, "a0"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestVoiceprintRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	students := NewStudentRepository(pool)
	repo := NewVoiceprintRepository(pool)

	if err := students.Save(ctx, database.Student{ID: "s1", Name: "Mia"}); err != nil {
		t.Fatalf("Failed to save student: %v", err)
	}

	t.Run("PutAndGet", func(t *testing.T) {
		embedding := make([]float32, 256)
		for i := range embedding {
			embedding[i] = float32(i) / 256.0
		}
		if err := repo.Put(ctx, "s1", embedding); err != nil {
			t.Fatalf("Failed to put voiceprint: %v", err)
		}

		got, err := repo.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Failed to get voiceprint: %v", err)
		}
		if got.Dim != 256 || len(got.Embedding) != 256 {
			t.Errorf("got dim %d, embedding length %d", got.Dim, len(got.Embedding))
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("Count = %d, want 1", count)
		}
	})

	t.Run("CascadeOnStudentDelete", func(t *testing.T) {
		if err := students.Delete(ctx, "s1"); err != nil {
			t.Fatalf("Failed to delete student: %v", err)
		}
		if _, err := repo.Get(ctx, "s1"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("voiceprint survived student delete: %v", err)
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	students := NewStudentRepository(pool)
	repo := NewAttendanceRepository(pool)

	if err := students.Save(ctx, database.Student{ID: "s1", Name: "Mia"}); err != nil {
		t.Fatalf("Failed to save student: %v", err)
	}

	t.Run("MarkIdempotent", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if err := repo.MarkPresent(ctx, "s1", "2024-03-07"); err != nil {
				t.Fatalf("Failed to mark present: %v", err)
			}
		}
		ids, err := repo.Present(ctx, "2024-03-07")
		if err != nil {
			t.Fatalf("Failed to read attendance: %v", err)
		}
		if len(ids) != 1 || ids[0] != "s1" {
			t.Errorf("Present = %v, want [s1]", ids)
		}
	})

	t.Run("EmptyDate", func(t *testing.T) {
		ids, err := repo.Present(ctx, "1999-01-01")
		if err != nil {
			t.Fatalf("Failed to read empty date: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("Present on empty date = %v", ids)
		}
	})

	t.Run("All", func(t *testing.T) {
		all, err := repo.All(ctx)
		if err != nil {
			t.Fatalf("Failed to read ledger: %v", err)
		}
		if len(all["2024-03-07"]) != 1 {
			t.Errorf("All = %v", all)
		}
	})
}

func TestRegistrar(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	registrar := NewRegistrar(pool)
	students := NewStudentRepository(pool)
	voiceprints := NewVoiceprintRepository(pool)

	t.Run("RegisterBoth", func(t *testing.T) {
		student := database.Student{ID: "s1", Name: "Mia Novak"}
		if err := registrar.Register(ctx, student, []float32{1, 0, 0}); err != nil {
			t.Fatalf("Failed to register: %v", err)
		}

		if _, err := students.Find(ctx, "s1"); err != nil {
			t.Errorf("student not stored: %v", err)
		}
		if _, err := voiceprints.Get(ctx, "s1"); err != nil {
			t.Errorf("voiceprint not stored: %v", err)
		}
	})

	t.Run("UnregisterBoth", func(t *testing.T) {
		if err := registrar.Unregister(ctx, "s1"); err != nil {
			t.Fatalf("Failed to unregister: %v", err)
		}
		if _, err := students.Find(ctx, "s1"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("student still present: %v", err)
		}
	})

	t.Run("UnregisterMissing", func(t *testing.T) {
		if err := registrar.Unregister(ctx, "ghost"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
