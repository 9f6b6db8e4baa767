package llm_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/ragmem/pkg/llm"
)

type countingEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := make([]float32, len(c.vec))
	copy(out, c.vec)
	return out, nil
}

func (c *countingEmbedder) Model() string { return "counting" }

func TestWrapLRUCache(t *testing.T) {
	base := &countingEmbedder{vec: []float32{1, 2}}
	cached := llm.WrapLRUCache(base, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "same text")
	require.NoError(t, err)
	first[0] = 99

	second, err := cached.Embed(context.Background(), "same text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, second)
	assert.Equal(t, 1, base.calls)

	_, err = cached.Embed(context.Background(), "other text")
	require.NoError(t, err)
	assert.Equal(t, 2, base.calls)
	assert.Equal(t, "counting", cached.Model())
}

func TestWrapLRUCache_Disabled(t *testing.T) {
	base := &countingEmbedder{}
	assert.Same(t, base, llm.WrapLRUCache(base, 0, time.Minute))
	assert.Same(t, base, llm.WrapLRUCache(base, 10, 0))
}

func TestWrapLRUCache_DoesNotCacheErrors(t *testing.T) {
	base := &countingEmbedder{err: errors.New("down")}
	cached := llm.WrapLRUCache(base, 16, time.Minute)

	_, err := cached.Embed(context.Background(), "x")
	assert.Error(t, err)
	_, err = cached.Embed(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, 2, base.calls)
}

func TestNormalized(t *testing.T) {
	emb := llm.Normalized(&countingEmbedder{vec: []float32{3, 4}})

	vec, err := emb.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestL2Normalize_ZeroVector(t *testing.T) {
	assert.Equal(t, []float32{0, 0}, llm.L2Normalize([]float32{0, 0}))
}

func TestNewProvider(t *testing.T) {
	emb, gen, err := llm.NewProvider(llm.ProviderConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Temperature: 0.7})
	require.NoError(t, err)
	assert.NotNil(t, emb)
	assert.NotNil(t, gen)

	emb, gen, err = llm.NewProvider(llm.ProviderConfig{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIEmbedder{}, emb)
	assert.IsType(t, &llm.OpenAIChat{}, gen)

	_, _, err = llm.NewProvider(llm.ProviderConfig{Provider: "nope"})
	assert.Error(t, err)
}
