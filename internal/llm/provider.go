package llm

import (
	"context"
	"fmt"

	"github.com/josinaldojr/smartfinder-rag/internal/config"
	"github.com/josinaldojr/smartfinder-rag/internal/rag"
)

// NewCompletionClient builds the completion backend named by cfg.Provider.
func NewCompletionClient(ctx context.Context, cfg config.LLMConfig) (rag.CompletionClient, error) {
	var (
		c   rag.CompletionClient
		err error
	)
	switch cfg.Provider {
	case "groq":
		c, err = NewGroqClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "gemini":
		c, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:    geminiKey(cfg),
			ChatModel: cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewEmbeddingsClient builds the query embedder, wrapped in an LRU cache
// when cfg.CacheSize and cfg.CacheTTL are positive.
func NewEmbeddingsClient(ctx context.Context, cfg config.EmbedConfig, llmCfg config.LLMConfig) (rag.EmbeddingsClient, error) {
	var (
		e   rag.EmbeddingsClient
		err error
	)
	switch cfg.Provider {
	case "ollama":
		e, err = NewOllamaEmbedder(cfg.OllamaHost, cfg.Model, cfg.Dimension)
	case "gemini":
		e, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:     geminiKey(llmCfg),
			EmbedModel: cfg.Model,
			EmbedDim:   cfg.Dimension,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WrapLRUCache(e, cfg.CacheSize, cfg.CacheTTL), nil
}

// geminiKey falls back to API_KEY only when that key belongs to Gemini.
func geminiKey(cfg config.LLMConfig) string {
	if cfg.GeminiAPIKey != "" {
		return cfg.GeminiAPIKey
	}
	if cfg.Provider == "gemini" {
		return cfg.APIKey
	}
	return ""
}
