package rag

import "context"

type EmbeddingsClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex returns up to k chunks ordered by descending score.
type VectorIndex interface {
	Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error)
}

type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
