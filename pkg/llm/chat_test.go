package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	appErr "github.com/xhad/ragmem/internal/pkg/errors"
	"github.com/xhad/ragmem/pkg/llm"
)

type fakeModel struct {
	messages []llms.MessageContent
	reply    *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.reply, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestNewWithConfig(t *testing.T) {
	config := llm.ChatConfig{
		Model:       "testmodel",
		Temperature: 0.5,
		MaxTokens:   1000,
		BaseURL:     "http://localhost:1234",
	}
	engine, err := llm.NewWithConfig(config)
	assert.NoError(t, err)
	assert.NotNil(t, engine)
	assert.Equal(t, "testmodel", engine.Model())
}

func TestNewWithConfig_Invalid(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{Temperature: 3})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{MaxTokens: -1})
	assert.Error(t, err)
}

func TestChatEngine_Generate(t *testing.T) {
	model := &fakeModel{reply: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "  the answer  "}},
	}}
	engine, err := llm.NewChatEngine(model, llm.ChatConfig{Temperature: 0.2})
	require.NoError(t, err)

	answer, err := engine.Generate(context.Background(), "system rules", "question text")
	require.NoError(t, err)
	assert.Equal(t, "  the answer  ", answer)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.TextContent{Text: "system rules"}, model.messages[0].Parts[0])
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: "question text"}, model.messages[1].Parts[0])
}

func TestChatEngine_GenerateErrors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"model error", &fakeModel{err: errors.New("connection refused")}},
		{"nil response", &fakeModel{}},
		{"no choices", &fakeModel{reply: &llms.ContentResponse{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := llm.NewChatEngine(tt.model, llm.ChatConfig{})
			require.NoError(t, err)

			_, err = engine.Generate(context.Background(), "s", "u")
			assert.ErrorIs(t, err, appErr.ErrGenerationService)
		})
	}
}
