package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/voice-attendance/internal/attendance"
	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/database/badgerstore"
	"github.com/kozaktomas/voice-attendance/internal/database/postgres"
	"github.com/kozaktomas/voice-attendance/internal/matcher"
	"github.com/kozaktomas/voice-attendance/internal/roster"
	"github.com/kozaktomas/voice-attendance/internal/voiceprint"
)

// openStore opens the storage backend selected by STORAGE_BACKEND. The
// badger backend is the default and needs no external services; the
// postgres backend requires DATABASE_URL and runs pending migrations on
// open.
func openStore(ctx context.Context, cfg *config.Config) (*database.Handle, error) {
	switch cfg.Storage.Backend {
	case "badger", "":
		store, err := badgerstore.Open(badgerstore.Options{Dir: cfg.Storage.Dir})
		if err != nil {
			return nil, fmt.Errorf("opening badger store: %w", err)
		}
		return database.NewHandle(
			store.Students(),
			store.Voiceprints(),
			store.Attendance(),
			store,
			store.Close,
		), nil

	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL environment variable is required for the postgres backend")
		}
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return database.NewHandle(
			postgres.NewStudentRepository(pool),
			postgres.NewVoiceprintRepository(pool),
			postgres.NewAttendanceRepository(pool),
			postgres.NewRegistrar(pool),
			pool.Close,
		), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected badger or postgres)", cfg.Storage.Backend)
	}
}

// services bundles the domain services built over a storage handle.
type services struct {
	handle   *database.Handle
	roster   *roster.Roster
	ledger   *attendance.Ledger
	matcher  *matcher.Matcher
	embedder voiceprint.Embedder
}

// openServices opens the backend and wires the roster, ledger, matcher and
// embedding client over it. Callers must Close the handle when done.
func openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	handle, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &services{
		handle:   handle,
		roster:   roster.New(handle.Students, handle.Voiceprints, handle.Registrar),
		ledger:   attendance.NewLedger(handle.Attendance),
		matcher:  matcher.New(handle.Voiceprints, cfg.Matcher.Threshold),
		embedder: voiceprint.NewEmbeddingClient(cfg.Embedding.URL, cfg.Embedding.Dim),
	}, nil
}

func (s *services) Close() error {
	return s.handle.Close()
}
