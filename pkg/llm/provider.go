package llm

import (
	"fmt"
	"strings"

	"github.com/xhad/ragmem/internal/types"
)

// ProviderConfig selects the backend for both capabilities.
type ProviderConfig struct {
	Provider    string // "ollama" or "openai"
	BaseURL     string
	APIKey      string
	Model       string
	EmbedModel  string
	Temperature float64
	MaxTokens   int
}

// NewProvider builds the embedding and generation capabilities for the
// configured provider.
func NewProvider(config ProviderConfig) (types.Embedder, types.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "", "ollama":
		emb, err := NewEmbedderWithConfig(EmbedderConfig{
			Model:   config.EmbedModel,
			BaseURL: config.BaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		chat, err := NewWithConfig(ChatConfig{
			Model:       config.Model,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
			BaseURL:     config.BaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return emb, chat, nil
	case "openai":
		oc := OpenAIConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			EmbedModel:  config.EmbedModel,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		}
		emb, err := NewOpenAIEmbedder(oc)
		if err != nil {
			return nil, nil, err
		}
		chat, err := NewOpenAIChat(oc)
		if err != nil {
			return nil, nil, err
		}
		return emb, chat, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider: %s", config.Provider)
	}
}
