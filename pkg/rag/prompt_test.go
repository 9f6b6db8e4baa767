package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPrompt(t *testing.T) {
	tests := []struct {
		name            string
		system          string
		contextTemplate string
		wantSystem      string
		wantTemplate    string
	}{
		{"defaults", "", "", DefaultSystemTemplate, DefaultContextTemplate},
		{"blank system", "  \n", "", DefaultSystemTemplate, DefaultContextTemplate},
		{"custom", "Be brief.", "C: %s / Q: %s", "Be brief.", "C: %s / Q: %s"},
		{"template with one verb", "", "Q: %s", DefaultSystemTemplate, DefaultContextTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrompt(tt.system, tt.contextTemplate)
			assert.Equal(t, tt.wantSystem, p.System)
			assert.Equal(t, tt.wantTemplate, p.ContextTemplate)
		})
	}
}

func TestPromptBuild(t *testing.T) {
	system, user := NewPrompt("", "").Build("Alice won the cup.", "Who won?")

	assert.Contains(t, system, "ONLY the context")
	assert.Contains(t, system, `"I don't have enough information to answer that."`)
	assert.Equal(t, "Context:\nAlice won the cup.\n\nQuestion: Who won?", user)
}
