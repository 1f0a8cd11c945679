package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/josinaldojr/smartfinder-rag/internal/rag"
)

// WrapLRUCache memoizes query embeddings. Prompts and answers are never
// cached. A non-positive size or ttl returns e unchanged.
func WrapLRUCache(e rag.EmbeddingsClient, size int, ttl time.Duration) rag.EmbeddingsClient {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  rag.EmbeddingsClient
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if cached, ok := l.cache.Get(key); ok {
		return cloneEmbedding(cached), nil
	}
	res, err := l.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, cloneEmbedding(res))
	return res, nil
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(normalizeWhitespace(text)))
	return hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
