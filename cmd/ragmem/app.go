package main

import (
	"fmt"

	"go.uber.org/zap"

	cfgPkg "github.com/xhad/ragmem/pkg/config"
	"github.com/xhad/ragmem/pkg/llm"
	"github.com/xhad/ragmem/pkg/processor"
	"github.com/xhad/ragmem/pkg/rag"
	"github.com/xhad/ragmem/pkg/scraper"
	"github.com/xhad/ragmem/pkg/store"
)

// newService wires the provider capabilities, the chunker and an empty
// in-memory index into a retrieval service.
func newService(cfg *cfgPkg.Config, logger *zap.Logger, onProgress func(done, total int)) (*rag.Service, error) {
	embedder, generator, err := llm.NewProvider(llm.ProviderConfig{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		EmbedModel:  cfg.LLM.EmbedModel,
		Temperature: cfg.LLM.TemperatureValue(),
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s provider: %w", cfg.LLM.Provider, err)
	}

	if cfg.Retrieval.NormalizeEnabled() {
		embedder = llm.Normalized(embedder)
	}
	embedder = llm.WrapLRUCache(embedder, cfg.Retrieval.CacheSize, cfg.Retrieval.CacheTTL)

	svc, err := rag.NewWithConfig(rag.Config{
		TopK:            cfg.Retrieval.TopK,
		Workers:         cfg.Retrieval.Workers,
		RateLimit:       cfg.Retrieval.RateLimit,
		EmbedTimeout:    cfg.Retrieval.EmbedTimeout,
		GenerateTimeout: cfg.LLM.Timeout,
		SystemTemplate:  cfg.LLM.SystemTemplate,
		ContextTemplate: cfg.LLM.ContextTemplate,
		OnProgress:      onProgress,
	},
		processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: cfg.Processor.ChunkSize}),
		embedder,
		generator,
		store.NewMemoryIndex(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize retrieval service: %w", err)
	}

	logger.Info("retrieval service ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("embed_model", embedder.Model()),
		zap.Int("chunk_size", cfg.Processor.ChunkSize),
		zap.Int("top_k", cfg.Retrieval.TopK),
		zap.Bool("normalize", cfg.Retrieval.NormalizeEnabled()),
	)
	return svc, nil
}

func newScraper(cfg *cfgPkg.Config, onProgress func(url string)) *scraper.Scraper {
	return scraper.NewWithConfig(scraper.ScraperConfig{
		MaxDepth:          cfg.Scraper.MaxDepthValue(),
		RateLimit:         cfg.Scraper.RateLimit,
		IgnorePatterns:    cfg.Scraper.IgnorePatterns,
		AllowedExtensions: cfg.Scraper.AllowedExtensions,
		Timeout:           cfg.Scraper.Timeout,
		OnProgress:        onProgress,
	})
}
