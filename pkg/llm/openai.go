package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	appErr "github.com/xhad/ragmem/internal/pkg/errors"
)

// OpenAIConfig configures the OpenAI-compatible embedder and chat client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // empty uses api.openai.com
	Model       string
	EmbedModel  string
	Temperature float64
	MaxTokens   int
}

func newOpenAIClient(config OpenAIConfig) (*openai.Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	return openai.NewClientWithConfig(cfg), nil
}

// OpenAIEmbedder uses the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(config OpenAIConfig) (*OpenAIEmbedder, error) {
	client, err := newOpenAIClient(config)
	if err != nil {
		return nil, err
	}
	model := config.EmbedModel
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{client: client, model: model}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrEmbeddingService, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding data returned from API", appErr.ErrEmbeddingService)
	}
	return resp.Data[0].Embedding, nil
}

func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// OpenAIChat generates answers through the chat completions API.
type OpenAIChat struct {
	client *openai.Client
	config OpenAIConfig
}

func NewOpenAIChat(config OpenAIConfig) (*OpenAIChat, error) {
	client, err := newOpenAIClient(config)
	if err != nil {
		return nil, err
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	return &OpenAIChat{client: client, config: config}, nil
}

func (c *OpenAIChat) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: float32(c.config.Temperature),
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", appErr.ErrGenerationService, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai response has no choices", appErr.ErrGenerationService)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIChat) Model() string {
	return c.config.Model
}
