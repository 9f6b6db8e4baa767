package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Message: "listen address is required",
		})
	}

	// Validate LLM config
	switch c.LLM.Provider {
	case ProviderOllama:
		if c.LLM.BaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "Ollama base URL is required",
			})
		}
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.api_key",
				Message: "api_key is required for the openai provider",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider: %s", c.LLM.Provider),
		})
	}

	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if t := c.LLM.TemperatureValue(); t < 0 || t > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.ContextTemplate != "" && strings.Count(c.LLM.ContextTemplate, "%s") != 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.context_template",
			Message: "context_template must contain exactly two %s verbs (context, question)",
		})
	}

	// Validate Processor config
	if c.Processor.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	// Validate Retrieval config
	if c.Retrieval.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Retrieval.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.workers",
			Message: "workers must be positive",
		})
	}

	if c.Retrieval.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.rate_limit",
			Message: "rate_limit must not be negative",
		})
	}

	if c.Retrieval.EmbedTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.embed_timeout",
			Message: "embed_timeout must not be negative",
		})
	}

	// Validate Scraper config
	if c.Scraper.MaxDepthValue() < 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.max_depth",
			Message: "max_depth must not be negative",
		})
	}

	if c.Scraper.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate extensions format
	for _, ext := range c.Scraper.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errors = append(errors, ValidationError{
				Field:   "scraper.allowed_extensions",
				Message: fmt.Sprintf("invalid extension format: %s", ext),
			})
		}
	}

	switch c.UI.Color {
	case "auto", "always", "never":
	default:
		errors = append(errors, ValidationError{
			Field:   "ui.color",
			Message: "color must be one of auto, always, never",
		})
	}

	return errors
}
