package store_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/ragmem/internal/models"
	"github.com/xhad/ragmem/pkg/store"
)

func entry(i int, text string, vec ...float32) models.IndexEntry {
	return models.IndexEntry{
		Chunk:     models.Chunk{Index: i, Text: text},
		Embedding: vec,
	}
}

func texts(results []models.ScoredChunk) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.Text
	}
	return out
}

func TestMemoryIndex_Empty(t *testing.T) {
	idx := store.NewMemoryIndex()

	assert.Empty(t, idx.Query([]float32{1, 0}, 3))
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, uint64(0), idx.Generation())
}

func TestMemoryIndex_QueryRanksByDotProduct(t *testing.T) {
	idx := store.NewMemoryIndex()
	idx.Replace([]models.IndexEntry{
		entry(0, "low", 0.1, 0),
		entry(1, "high", 0.9, 0),
		entry(2, "mid", 0.5, 0),
		entry(3, "negative", -1, 0),
	}, "test-model")

	results := idx.Query([]float32{1, 0}, 3)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"high", "mid", "low"}, texts(results))
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
	assert.Equal(t, "test-model", idx.Model())
}

func TestMemoryIndex_QueryReturnsMinOfKAndLen(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 3},
		{10, 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("size=%d", tt.size), func(t *testing.T) {
			idx := store.NewMemoryIndex()
			entries := make([]models.IndexEntry, tt.size)
			for i := range entries {
				entries[i] = entry(i, fmt.Sprintf("chunk %d", i), float32(i), 1)
			}
			idx.Replace(entries, "m")

			assert.Len(t, idx.Query([]float32{1, 1}, store.DefaultTopK), tt.want)
		})
	}
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx := store.NewMemoryIndex()
	idx.Replace([]models.IndexEntry{
		entry(0, "first", 1, 0),
		entry(1, "second", 1, 0),
		entry(2, "best", 2, 0),
		entry(3, "third", 1, 0),
	}, "m")

	results := idx.Query([]float32{1, 0}, 4)
	assert.Equal(t, []string{"best", "first", "second", "third"}, texts(results))
}

func TestMemoryIndex_ReplaceDiscardsPreviousEntries(t *testing.T) {
	idx := store.NewMemoryIndex()
	first := idx.Replace([]models.IndexEntry{entry(0, "old", 1, 0)}, "m")
	second := idx.Replace([]models.IndexEntry{entry(0, "new a", 1, 0), entry(1, "new b", 0, 1)}, "m")

	assert.Greater(t, second, first)
	assert.Equal(t, 2, idx.Len())
	for _, r := range idx.Query([]float32{1, 1}, 10) {
		assert.NotEqual(t, "old", r.Chunk.Text)
		assert.Equal(t, second, r.Generation)
	}
}

func TestMemoryIndex_ReplaceCopiesInput(t *testing.T) {
	idx := store.NewMemoryIndex()
	entries := []models.IndexEntry{entry(0, "kept", 1)}
	idx.Replace(entries, "m")

	entries[0].Chunk.Text = "mutated"
	assert.Equal(t, "kept", idx.Entries()[0].Chunk.Text)
}

func TestMemoryIndex_ConcurrentReadersSeeOneGeneration(t *testing.T) {
	idx := store.NewMemoryIndex()

	build := func(n int) []models.IndexEntry {
		entries := make([]models.IndexEntry, 5)
		for i := range entries {
			entries[i] = entry(i, fmt.Sprintf("gen-%d chunk %d", n, i), 1, float32(i))
		}
		return entries
	}
	idx.Replace(build(0), "m")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	mixed := make(chan string, 1)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				results := idx.Query([]float32{1, 1}, 5)
				for _, res := range results[1:] {
					if res.Generation != results[0].Generation {
						select {
						case mixed <- fmt.Sprintf("%d != %d", res.Generation, results[0].Generation):
						default:
						}
					}
				}
			}
		}()
	}

	for n := 1; n <= 200; n++ {
		idx.Replace(build(n), "m")
	}
	close(stop)
	wg.Wait()

	select {
	case msg := <-mixed:
		t.Fatalf("reader observed mixed generations: %s", msg)
	default:
	}
}

func TestDot(t *testing.T) {
	assert.Equal(t, float32(11), store.Dot([]float32{1, 2}, []float32{3, 4}))
	assert.Equal(t, float32(3), store.Dot([]float32{1, 2, 5}, []float32{3}))
	assert.Equal(t, float32(0), store.Dot(nil, []float32{1}))
}
