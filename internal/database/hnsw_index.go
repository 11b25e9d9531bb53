package database

import (
	"sync"

	"github.com/coder/hnsw"
)

// HNSWMaxNeighbors is the M parameter for the HNSW graph.
const HNSWMaxNeighbors = 16

// VoiceprintIndex wraps an HNSW graph over stored voiceprints for fast
// approximate nearest-neighbor candidate selection. Callers re-score
// candidates with exact cosine similarity; the index never decides a match
// on its own.
type VoiceprintIndex struct {
	graph *hnsw.Graph[string]
	dims  map[string]int
	mu    sync.RWMutex
}

// NewVoiceprintIndex creates a new empty index.
func NewVoiceprintIndex() *VoiceprintIndex {
	return &VoiceprintIndex{
		dims: make(map[string]int),
	}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// Build replaces the index contents with the given voiceprints.
func (v *VoiceprintIndex) Build(voiceprints []StoredVoiceprint) {
	v.mu.Lock()
	defer v.mu.Unlock()

	g := newGraph()
	v.dims = make(map[string]int, len(voiceprints))
	for i := range voiceprints {
		vp := &voiceprints[i]
		if len(vp.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(vp.StudentID, vp.Embedding))
		v.dims[vp.StudentID] = len(vp.Embedding)
	}
	v.graph = g
}

// Add inserts or replaces a single voiceprint in the index.
func (v *VoiceprintIndex) Add(vp *StoredVoiceprint) {
	if len(vp.Embedding) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.graph == nil {
		v.graph = newGraph()
	}
	v.graph.Add(hnsw.MakeNode(vp.StudentID, vp.Embedding))
	v.dims[vp.StudentID] = len(vp.Embedding)
}

// Remove deletes a voiceprint from the index. No-op if absent.
func (v *VoiceprintIndex) Remove(studentID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.graph == nil {
		return
	}
	v.graph.Delete(studentID)
	delete(v.dims, studentID)
}

// Search returns the student IDs of the k nearest voiceprints to the query,
// with their exact cosine similarity scores.
func (v *VoiceprintIndex) Search(query []float32, k int) ([]string, []float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.graph == nil {
		return nil, nil
	}

	neighbors := v.graph.Search(query, k)
	ids := make([]string, len(neighbors))
	scores := make([]float64, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
		scores[i] = CosineSimilarity(query, n.Value)
	}
	return ids, scores
}

// ConflictingDim returns a stored dimension that differs from d, if any.
func (v *VoiceprintIndex) ConflictingDim(d int) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, dim := range v.dims {
		if dim != d {
			return dim, true
		}
	}
	return 0, false
}

// Len returns the number of indexed voiceprints.
func (v *VoiceprintIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.dims)
}
