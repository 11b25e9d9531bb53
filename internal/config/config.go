package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Storage   StorageConfig
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Matcher   MatcherConfig
	Audio     AudioConfig
}

type StorageConfig struct {
	Backend string // "badger" (default) or "postgres"
	Dir     string // data directory for the badger backend
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EmbeddingConfig struct {
	URL string // embedding server base URL, defaults to http://localhost:8000
	Dim int    // expected embedding dimension
}

type MatcherConfig struct {
	Threshold       float64 // minimum cosine similarity for a match
	IndexCandidates int     // HNSW candidates before exact re-scoring
}

type AudioConfig struct {
	CaptureCommand  string // external recorder command, {file} is replaced with the output path
	SampleRate      int
	DurationSeconds int
}

// defaults mirrors defaults.yaml.
type defaults struct {
	Matcher struct {
		Threshold       float64 `yaml:"threshold"`
		IndexCandidates int     `yaml:"index_candidates"`
	} `yaml:"matcher"`
	Audio struct {
		SampleRate      int `yaml:"sample_rate"`
		DurationSeconds int `yaml:"duration_seconds"`
	} `yaml:"audio"`
	Embedding struct {
		Dim int `yaml:"dim"`
	} `yaml:"embedding"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback.
func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Storage: StorageConfig{
			Backend: envString("STORAGE_BACKEND", "badger"),
			Dir:     envString("STORAGE_DIR", "data"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", def.Embedding.Dim),
		},
		Matcher: MatcherConfig{
			Threshold:       envFloat("MATCH_THRESHOLD", def.Matcher.Threshold),
			IndexCandidates: envInt("MATCH_INDEX_CANDIDATES", def.Matcher.IndexCandidates),
		},
		Audio: AudioConfig{
			CaptureCommand:  os.Getenv("AUDIO_CAPTURE_COMMAND"),
			SampleRate:      envInt("AUDIO_SAMPLE_RATE", def.Audio.SampleRate),
			DurationSeconds: envInt("AUDIO_DURATION_SECONDS", def.Audio.DurationSeconds),
		},
	}
}
