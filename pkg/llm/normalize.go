package llm

import (
	"context"
	"math"

	"github.com/xhad/ragmem/internal/types"
)

// Normalized scales every embedding produced by e to unit length so that the
// index's dot product behaves as cosine similarity.
func Normalized(e types.Embedder) types.Embedder {
	if e == nil {
		return nil
	}
	return &normalizedEmbedder{next: e}
}

type normalizedEmbedder struct {
	next types.Embedder
}

func (n *normalizedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := n.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return L2Normalize(v), nil
}

func (n *normalizedEmbedder) Model() string {
	return n.next.Model()
}

// L2Normalize returns a unit-length copy of v. A zero vector is returned as is.
func L2Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)

	var sum float64
	for _, x := range out {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range out {
		out[i] *= inv
	}
	return out
}
