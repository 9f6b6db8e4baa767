package types

import (
	"context"

	"github.com/xhad/ragmem/internal/models"
)

// Core interfaces
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Index holds the current set of embedded chunks. Replace swaps the whole
// collection; Query never observes a partially replaced index.
type Index interface {
	Replace(entries []models.IndexEntry, model string) uint64
	Query(vector []float32, k int) []models.ScoredChunk
	Len() int
	Generation() uint64
}
