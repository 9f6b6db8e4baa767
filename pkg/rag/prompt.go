package rag

import (
	"fmt"
	"strings"
)

// FallbackAnswer is the sentence the model is told to reply with when the
// context does not contain the answer.
const FallbackAnswer = "I don't have enough information to answer that."

var DefaultSystemTemplate = fmt.Sprintf(`You are a helpful assistant for a gaming community.
Answer the user's question using ONLY the context provided.
- Do not use outside knowledge.
- Keep the answer short and factual.
- If the context does not contain the answer, reply exactly with: "%s"`, FallbackAnswer)

// DefaultContextTemplate receives the retrieved context and then the question.
const DefaultContextTemplate = "Context:\n%s\n\nQuestion: %s"

// Prompt turns retrieved context and a question into the system and user
// messages sent to the generation capability.
type Prompt struct {
	System          string
	ContextTemplate string
}

func NewPrompt(system, contextTemplate string) Prompt {
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemTemplate
	}
	if strings.Count(contextTemplate, "%s") != 2 {
		contextTemplate = DefaultContextTemplate
	}
	return Prompt{System: system, ContextTemplate: contextTemplate}
}

func (p Prompt) Build(contextText, question string) (string, string) {
	return p.System, fmt.Sprintf(p.ContextTemplate, contextText, question)
}
