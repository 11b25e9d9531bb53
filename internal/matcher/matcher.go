// Package matcher decides which enrolled student, if any, a voice embedding
// belongs to.
package matcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/voice-attendance/internal/database"
)

// DefaultThreshold is the minimum cosine similarity for a positive
// identification. A policy choice, not derived from data; override via
// configuration.
const DefaultThreshold = 0.75

// Result is the outcome of an identification. A NoMatch result is a valid
// value, not an error: Matched is false and the other fields are zero.
type Result struct {
	Matched    bool    `json:"matched"`
	StudentID  string  `json:"student_id,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Matcher scores query embeddings against all stored voiceprints.
type Matcher struct {
	voiceprints database.VoiceprintStore
	threshold   float64

	index      *database.VoiceprintIndex
	candidates int
}

// New creates a matcher over the given voiceprint store. A non-positive
// threshold falls back to DefaultThreshold.
func New(voiceprints database.VoiceprintStore, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{
		voiceprints: voiceprints,
		threshold:   threshold,
		candidates:  5,
	}
}

// Threshold returns the similarity threshold in use.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// EnableIndex builds an HNSW index over the current store contents and uses
// it for candidate pre-selection on subsequent Identify calls. Scores are
// always exact cosine similarity; the index only narrows the candidate set.
func (m *Matcher) EnableIndex(ctx context.Context, candidates int) error {
	var voiceprints []database.StoredVoiceprint
	for vp, err := range m.voiceprints.All(ctx) {
		if err != nil {
			return fmt.Errorf("loading voiceprints for index: %w", err)
		}
		voiceprints = append(voiceprints, vp)
	}

	index := database.NewVoiceprintIndex()
	index.Build(voiceprints)
	m.index = index
	if candidates > 0 {
		m.candidates = candidates
	}
	return nil
}

// IndexAdd updates the index after an enrollment. No-op when the index is
// disabled.
func (m *Matcher) IndexAdd(vp *database.StoredVoiceprint) {
	if m.index != nil {
		m.index.Add(vp)
	}
}

// IndexRemove updates the index after a removal. No-op when the index is
// disabled.
func (m *Matcher) IndexRemove(studentID string) {
	if m.index != nil {
		m.index.Remove(studentID)
	}
}

// Identify scores the query against every stored voiceprint and returns the
// best candidate above the threshold, or a NoMatch result.
//
// An empty store always yields NoMatch. A stored voiceprint whose dimension
// differs from the query fails the whole identification with
// ErrDimensionMismatch; mismatches signal a corrupted or mixed-model store
// and are never silently skipped. Ties keep the first maximum encountered
// in ascending student ID order.
func (m *Matcher) Identify(ctx context.Context, query []float32) (Result, error) {
	if len(query) == 0 {
		return Result{}, errors.New("empty query embedding")
	}

	if m.index != nil && m.index.Len() > 0 {
		return m.identifyIndexed(query)
	}

	var best Result
	found := false
	for vp, err := range m.voiceprints.All(ctx) {
		if err != nil {
			return Result{}, fmt.Errorf("scanning voiceprints: %w", err)
		}
		if len(vp.Embedding) != len(query) {
			return Result{}, &database.ErrDimensionMismatch{
				Expected: len(vp.Embedding),
				Actual:   len(query),
			}
		}
		score := database.CosineSimilarity(query, vp.Embedding)
		if !found || score > best.Similarity {
			found = true
			best = Result{StudentID: vp.StudentID, Similarity: score}
		}
	}

	if !found || best.Similarity <= m.threshold {
		return Result{}, nil
	}
	best.Matched = true
	return best, nil
}

// identifyIndexed uses the HNSW index for candidate selection, then applies
// the same exact scoring and threshold decision as the brute-force path.
func (m *Matcher) identifyIndexed(query []float32) (Result, error) {
	if dim, ok := m.index.ConflictingDim(len(query)); ok {
		return Result{}, &database.ErrDimensionMismatch{Expected: dim, Actual: len(query)}
	}

	ids, scores := m.index.Search(query, m.candidates)
	var best Result
	found := false
	for i, id := range ids {
		if !found || scores[i] > best.Similarity {
			found = true
			best = Result{StudentID: id, Similarity: scores[i]}
		}
	}

	if !found || best.Similarity <= m.threshold {
		return Result{}, nil
	}
	best.Matched = true
	return best, nil
}
