package llm

import (
	"context"
	"fmt"

	"github.com/josinaldojr/smartfinder-rag/internal/rag"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbedder embeds queries with a locally served model such as
// all-minilm, the same family the index is usually built with.
type OllamaEmbedder struct {
	llm   *ollama.LLM
	model string
	dim   int
}

func NewOllamaEmbedder(host, model string, dim int) (*OllamaEmbedder, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if host != "" {
		opts = append(opts, ollama.WithServerURL(host))
	}
	l, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &OllamaEmbedder{llm: l, model: model, dim: dim}, nil
}

func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("empty text for embedding")
	}

	vecs, err := o.llm.CreateEmbedding(ctx, []string{clean})
	if err != nil {
		return nil, classify(fmt.Errorf("ollama embed %s: %w", o.model, err))
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	if err := checkDim(vecs[0], o.dim); err != nil {
		return nil, err
	}
	return vecs[0], nil
}

var _ rag.EmbeddingsClient = (*OllamaEmbedder)(nil)
