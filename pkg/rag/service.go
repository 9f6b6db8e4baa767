package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xhad/ragmem/internal/logging"
	"github.com/xhad/ragmem/internal/models"
	appErr "github.com/xhad/ragmem/internal/pkg/errors"
	"github.com/xhad/ragmem/internal/types"
	"github.com/xhad/ragmem/pkg/processor"
	"github.com/xhad/ragmem/pkg/store"
)

type Config struct {
	TopK            int
	Workers         int
	RateLimit       float64 // embedding requests per second, 0 disables
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
	SystemTemplate  string
	ContextTemplate string
	// OnProgress is called after each chunk embedding attempt during
	// StoreText. It may be called from several goroutines at once.
	OnProgress func(done, total int)
}

// Reply is an answer together with the chunks it was grounded on.
type Reply struct {
	Answer  string
	Context string
	Sources []models.ScoredChunk
}

// Service owns the ingest and question-answering flows over a shared index.
type Service struct {
	config    Config
	processor processor.Processor
	embedder  types.Embedder
	generator types.Generator
	index     types.Index
	prompt    Prompt
	limiter   *rate.Limiter

	// serialises uploads so generations are published in call order
	ingestMu sync.Mutex
}

func NewWithConfig(config Config, p processor.Processor, embedder types.Embedder, generator types.Generator, index types.Index) (*Service, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if index == nil {
		index = store.NewMemoryIndex()
	}
	if p.ChunkSize() <= 0 {
		p = processor.NewWithConfig(processor.ProcessorConfig{})
	}
	if config.TopK <= 0 {
		config.TopK = store.DefaultTopK
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}

	s := &Service{
		config:    config,
		processor: p,
		embedder:  embedder,
		generator: generator,
		index:     index,
		prompt:    NewPrompt(config.SystemTemplate, config.ContextTemplate),
	}
	if config.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.Workers)
	}
	return s, nil
}

func (s *Service) Index() types.Index {
	return s.index
}

// StoreText replaces the index with the embedded chunks of text. Chunks whose
// embedding fails are logged and skipped. When every chunk fails the index is
// still replaced (by an empty one) and ErrEmbeddingService is returned along
// with the result. A cancelled ctx leaves the previous index in place.
func (s *Service) StoreText(ctx context.Context, text string) (models.IngestResult, error) {
	chunks, err := s.processor.Split(text)
	if err != nil {
		return models.IngestResult{}, err
	}

	logger := logging.FromContext(ctx)
	started := time.Now()

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	embeddings := make([][]float32, len(chunks))
	var done atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			vec, err := s.embed(ctx, chunk.Text)
			if s.config.OnProgress != nil {
				s.config.OnProgress(int(done.Add(1)), len(chunks))
			}
			if err != nil {
				logger.Warn("skipping chunk, embedding failed",
					zap.Int("chunk", chunk.Index),
					zap.Int("chars", len(chunk.Text)),
					zap.Error(err),
				)
				return nil
			}
			embeddings[i] = vec
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn("upload cancelled, keeping previous index", zap.Error(err))
		return models.IngestResult{Chunks: len(chunks)}, err
	}

	entries := make([]models.IndexEntry, 0, len(chunks))
	dim := commonDimension(embeddings)
	for i, vec := range embeddings {
		if vec == nil {
			continue
		}
		if len(vec) != dim {
			logger.Warn("skipping chunk, embedding dimension mismatch",
				zap.Int("chunk", i), zap.Int("want", dim), zap.Int("got", len(vec)))
			continue
		}
		entries = append(entries, models.IndexEntry{Chunk: chunks[i], Embedding: vec})
	}

	gen := s.index.Replace(entries, s.embedder.Model())
	result := models.IngestResult{
		Generation: gen,
		Chunks:     len(chunks),
		Embedded:   len(entries),
		Failed:     len(chunks) - len(entries),
	}

	logger.Info("index replaced",
		zap.Uint64("generation", gen),
		zap.Int("chunks", result.Chunks),
		zap.Int("embedded", result.Embedded),
		zap.Int("failed", result.Failed),
		zap.Duration("took", time.Since(started)),
	)

	if result.Embedded == 0 {
		return result, fmt.Errorf("%w: all %d chunks failed to embed", appErr.ErrEmbeddingService, result.Chunks)
	}
	return result, nil
}

// StorePages joins the readable text of fetched pages and stores it as one
// upload.
func (s *Service) StorePages(ctx context.Context, pages []models.Page) (models.IngestResult, error) {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Content) == "" {
			continue
		}
		parts = append(parts, p.Content)
	}
	return s.StoreText(ctx, strings.Join(parts, "\n\n"))
}

// Retrieve ranks the current index against question. If the question cannot
// be embedded the failure is logged and no chunks are returned.
func (s *Service) Retrieve(ctx context.Context, question string) ([]models.ScoredChunk, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", appErr.ErrInvalidInput)
	}
	if s.index.Len() == 0 {
		return nil, nil
	}

	vec, err := s.embed(ctx, question)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logging.FromContext(ctx).Warn("query embedding failed, continuing without context", zap.Error(err))
		return nil, nil
	}
	return s.index.Query(vec, s.config.TopK), nil
}

// GetContext returns the texts of the best matching chunks, highest score
// first, separated by newlines.
func (s *Service) GetContext(ctx context.Context, question string) (string, error) {
	results, err := s.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	return joinContext(results), nil
}

// Ask retrieves context for question and has the generator answer from it.
func (s *Service) Ask(ctx context.Context, question string) (Reply, error) {
	results, err := s.Retrieve(ctx, question)
	if err != nil {
		return Reply{}, err
	}
	contextText := joinContext(results)

	systemPrompt, userPrompt := s.prompt.Build(contextText, question)

	if s.config.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.GenerateTimeout)
		defer cancel()
	}
	answer, err := s.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		if !errors.Is(err, appErr.ErrGenerationService) {
			err = fmt.Errorf("%w: %w", appErr.ErrGenerationService, err)
		}
		return Reply{}, err
	}

	return Reply{Answer: answer, Context: contextText, Sources: results}, nil
}

// Answer is Ask without the sources.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	reply, err := s.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	return reply.Answer, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", appErr.ErrEmbeddingService, err)
		}
	}
	if s.config.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.EmbedTimeout)
		defer cancel()
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if !errors.Is(err, appErr.ErrEmbeddingService) {
			err = fmt.Errorf("%w: %w", appErr.ErrEmbeddingService, err)
		}
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", appErr.ErrEmbeddingService)
	}
	return vec, nil
}

// commonDimension returns the most frequent vector length among the non-nil
// embeddings. Ties go to the length seen first in document order.
func commonDimension(embeddings [][]float32) int {
	counts := make(map[int]int)
	for _, vec := range embeddings {
		if vec != nil {
			counts[len(vec)]++
		}
	}
	best, bestCount := 0, 0
	for _, vec := range embeddings {
		if vec != nil && counts[len(vec)] > bestCount {
			best, bestCount = len(vec), counts[len(vec)]
		}
	}
	return best
}

func joinContext(results []models.ScoredChunk) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Text
	}
	return strings.Join(parts, "\n")
}
