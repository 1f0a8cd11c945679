package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/josinaldojr/smartfinder-rag/internal/config"
	"github.com/josinaldojr/smartfinder-rag/internal/db"
	"github.com/josinaldojr/smartfinder-rag/internal/llm"
	"github.com/josinaldojr/smartfinder-rag/internal/rag"
)

type app struct {
	service *rag.Service
	closeFn func()
}

func (a *app) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// buildApp loads the index and the model clients once. Any failure here is
// fatal for the process.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	index, closeIdx, err := openIndex(ctx, cfg.Index, logger)
	if err != nil {
		return nil, err
	}

	embeddings, err := llm.NewEmbeddingsClient(ctx, cfg.Embed, cfg.LLM)
	if err != nil {
		closeIdx()
		return nil, fmt.Errorf("init embeddings: %w", err)
	}

	completion, err := llm.NewCompletionClient(ctx, cfg.LLM)
	if err != nil {
		closeIdx()
		return nil, fmt.Errorf("init language model: %w", err)
	}

	service := rag.NewService(embeddings, index, completion, rag.Options{
		TopK:              cfg.RAG.TopK,
		CitationMode:      rag.CitationMode(cfg.RAG.CitationMode),
		DontKnow:          cfg.RAG.DontKnowText,
		AskOnEmptyContext: cfg.RAG.AskOnEmptyContext,
		LanguageHint:      cfg.RAG.LanguageHint,
		CompletionTimeout: cfg.RAG.CompletionTimeout,
		Retry: rag.RetryPolicy{
			MaxAttempts: cfg.RAG.RetryMaxAttempts,
			Backoff:     cfg.RAG.RetryBackoff,
		},
	}, logger)

	logger.Info("pipeline ready",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("embed_provider", cfg.Embed.Provider),
		zap.String("embed_model", cfg.Embed.Model),
		zap.String("index_backend", cfg.Index.Backend),
		zap.Int("top_k", cfg.RAG.TopK),
	)

	return &app{service: service, closeFn: closeIdx}, nil
}

func openIndex(ctx context.Context, cfg config.IndexConfig, logger *zap.Logger) (rag.VectorIndex, func(), error) {
	switch cfg.Backend {
	case config.BackendPgvector:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		idx := rag.NewPgIndex(pool, logger)
		if !cfg.Verify {
			logger.Warn("index integrity checks disabled", zap.String("backend", cfg.Backend))
		} else if err := idx.Verify(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("verify index: %w", err)
		}
		return idx, pool.Close, nil
	default:
		// LoadLocalIndex warns itself when verification is off
		idx, err := rag.LoadLocalIndex(ctx, cfg.Path, cfg.Verify, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("load index %s: %w", cfg.Path, err)
		}
		return idx, func() {}, nil
	}
}

func describeIndex(cfg config.IndexConfig, idx rag.VectorIndex) string {
	if local, ok := idx.(*rag.LocalIndex); ok {
		return fmt.Sprintf("%d chunks, dimension %d, path %s", local.Len(), local.Dimension(), cfg.Path)
	}
	return cfg.Backend
}
