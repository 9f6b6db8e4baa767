package store

import (
	"sort"
	"sync/atomic"

	"github.com/xhad/ragmem/internal/models"
)

const DefaultTopK = 3

type snapshot struct {
	generation uint64
	model      string
	entries    []models.IndexEntry
}

// MemoryIndex is a process-local vector index. Every Replace publishes a new
// immutable snapshot through an atomic pointer, so a Query sees either the
// previous or the next upload in full and never a mix of the two.
type MemoryIndex struct {
	current atomic.Pointer[snapshot]
	nextGen atomic.Uint64
}

func NewMemoryIndex() *MemoryIndex {
	idx := &MemoryIndex{}
	idx.current.Store(&snapshot{})
	return idx
}

// Replace discards the current entries and installs the given ones, stamping
// them with a fresh generation. The slice is copied; callers may reuse it.
func (m *MemoryIndex) Replace(entries []models.IndexEntry, model string) uint64 {
	gen := m.nextGen.Add(1)

	owned := make([]models.IndexEntry, len(entries))
	for i, e := range entries {
		e.Generation = gen
		owned[i] = e
	}

	m.current.Store(&snapshot{
		generation: gen,
		model:      model,
		entries:    owned,
	})
	return gen
}

// Query scores every entry by the dot product of its embedding with vector
// and returns the k best, highest first. Entries with equal scores keep their
// insertion order.
func (m *MemoryIndex) Query(vector []float32, k int) []models.ScoredChunk {
	snap := m.current.Load()
	if len(snap.entries) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	scored := make([]models.ScoredChunk, len(snap.entries))
	for i, e := range snap.entries {
		scored[i] = models.ScoredChunk{
			Chunk:      e.Chunk,
			Score:      Dot(e.Embedding, vector),
			Generation: e.Generation,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

func (m *MemoryIndex) Len() int {
	return len(m.current.Load().entries)
}

func (m *MemoryIndex) Generation() uint64 {
	return m.current.Load().generation
}

// Model reports the embedding model that produced the current entries.
func (m *MemoryIndex) Model() string {
	return m.current.Load().model
}

// Entries returns a copy of the current entries in insertion order.
func (m *MemoryIndex) Entries() []models.IndexEntry {
	snap := m.current.Load()
	out := make([]models.IndexEntry, len(snap.entries))
	copy(out, snap.entries)
	return out
}

// Dot is the unnormalised dot product over the shared prefix of a and b.
// It equals cosine similarity only when both vectors have unit length.
func Dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
