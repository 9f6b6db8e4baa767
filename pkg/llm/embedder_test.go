package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErr "github.com/xhad/ragmem/internal/pkg/errors"
)

type fakeEmbeddingClient struct {
	inputs [][]string
	out    [][]float32
	err    error
}

func (f *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	f.inputs = append(f.inputs, texts)
	return f.out, f.err
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := NewEmbedderWithConfig(EmbedderConfig{BaseURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text:latest", emb.Model())
}

func TestEmbedder_Embed(t *testing.T) {
	client := &fakeEmbeddingClient{out: [][]float32{{0.1, 0.2, 0.3}}}
	emb := &Embedder{config: EmbedderConfig{Model: "m"}, client: client}

	vec, err := emb.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, [][]string{{"hello"}}, client.inputs)
}

func TestEmbedder_EmbedErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeEmbeddingClient
	}{
		{"client error", &fakeEmbeddingClient{err: errors.New("quota exceeded")}},
		{"empty result", &fakeEmbeddingClient{}},
		{"empty vector", &fakeEmbeddingClient{out: [][]float32{{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &Embedder{client: tt.client}
			_, err := emb.Embed(context.Background(), "x")
			assert.ErrorIs(t, err, appErr.ErrEmbeddingService)
		})
	}
}
