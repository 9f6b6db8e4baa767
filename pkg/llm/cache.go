package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/xhad/ragmem/internal/logging"
	"github.com/xhad/ragmem/internal/types"
)

// WrapLRUCache puts an expiring LRU in front of e. A non-positive size or
// ttl disables caching and returns e unchanged.
func WrapLRUCache(e types.Embedder, size int, ttl time.Duration) types.Embedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  types.Embedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(l.next.Model(), text)
	if cached, ok := l.cache.Get(key); ok {
		logging.FromContext(ctx).Debug("embedding cache hit", zap.String("model", l.next.Model()))
		return cloneEmbedding(cached), nil
	}
	res, err := l.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, cloneEmbedding(res))
	return res, nil
}

func (l *lruEmbedder) Model() string {
	return l.next.Model()
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(sum[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
