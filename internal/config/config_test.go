package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Storage.Backend != "badger" {
		t.Errorf("Storage.Backend = %q, want badger", cfg.Storage.Backend)
	}
	if cfg.Storage.Dir != "data" {
		t.Errorf("Storage.Dir = %q, want data", cfg.Storage.Dir)
	}
	if cfg.Matcher.Threshold != 0.75 {
		t.Errorf("Matcher.Threshold = %f, want 0.75", cfg.Matcher.Threshold)
	}
	if cfg.Matcher.IndexCandidates != 5 {
		t.Errorf("Matcher.IndexCandidates = %d, want 5", cfg.Matcher.IndexCandidates)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("Audio.SampleRate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.DurationSeconds != 3 {
		t.Errorf("Audio.DurationSeconds = %d, want 3", cfg.Audio.DurationSeconds)
	}
	if cfg.Embedding.Dim != 256 {
		t.Errorf("Embedding.Dim = %d, want 256", cfg.Embedding.Dim)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Database.MaxOpenConns = %d, want 25", cfg.Database.MaxOpenConns)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/attendance")
	t.Setenv("MATCH_THRESHOLD", "0.9")
	t.Setenv("AUDIO_SAMPLE_RATE", "44100")
	t.Setenv("EMBEDDING_URL", "http://embeddings:8000")

	cfg := Load()

	if cfg.Storage.Backend != "postgres" {
		t.Errorf("Storage.Backend = %q, want postgres", cfg.Storage.Backend)
	}
	if cfg.Database.URL != "postgres://localhost/attendance" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Matcher.Threshold != 0.9 {
		t.Errorf("Matcher.Threshold = %f, want 0.9", cfg.Matcher.Threshold)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("Audio.SampleRate = %d, want 44100", cfg.Audio.SampleRate)
	}
	if cfg.Embedding.URL != "http://embeddings:8000" {
		t.Errorf("Embedding.URL = %q", cfg.Embedding.URL)
	}
}

func TestLoadIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("AUDIO_SAMPLE_RATE", "not-a-number")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "-3")

	cfg := Load()

	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("invalid AUDIO_SAMPLE_RATE not ignored: %d", cfg.Audio.SampleRate)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("negative DATABASE_MAX_OPEN_CONNS not ignored: %d", cfg.Database.MaxOpenConns)
	}
}
