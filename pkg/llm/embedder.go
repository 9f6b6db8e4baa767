package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"

	appErr "github.com/xhad/ragmem/internal/pkg/errors"
)

// EmbedderConfig represents the configuration for an Ollama embedder.
type EmbedderConfig struct {
	Model   string
	BaseURL string // Ollama server URL
}

// embeddingClient is the part of *ollama.LLM the embedder relies on.
type embeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder maps text to a vector through an Ollama embedding model.
type Embedder struct {
	config EmbedderConfig
	client embeddingClient
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest" // Default Ollama model
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	emb, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		config: config,
		client: emb,
	}, nil
}

// Embed returns the embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrEmbeddingService, err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: %w", appErr.ErrEmbeddingService, errors.New("no embedding returned"))
	}
	return embeddings[0], nil
}

func (e *Embedder) Model() string {
	return e.config.Model
}
