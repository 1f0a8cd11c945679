package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/josinaldojr/smartfinder-rag/internal/rag"
	"google.golang.org/genai"
)

const (
	geminiEmbedTask = "RETRIEVAL_QUERY"
)

type GeminiClient struct {
	client     *genai.Client
	embedModel string
	chatModel  string
	embedDim   int
}

type GeminiConfig struct {
	APIKey     string
	EmbedModel string
	ChatModel  string
	// EmbedDim requests and checks a fixed output size; 0 keeps the model default.
	EmbedDim int
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY or GOOGLE_API_KEY (API_KEY is accepted when LLM_PROVIDER=gemini)")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:     c,
		embedModel: cfg.EmbedModel,
		chatModel:  cfg.ChatModel,
		embedDim:   cfg.EmbedDim,
	}, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("empty text for embedding")
	}

	cfg := &genai.EmbedContentConfig{TaskType: geminiEmbedTask}
	if g.embedDim > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(g.embedDim))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(clean), cfg)
	if err != nil {
		return nil, classify(fmt.Errorf("gemini embed error: %w", err))
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Embeddings[0].Values
	if err := checkDim(values, g.embedDim); err != nil {
		return nil, err
	}
	return values, nil
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.chatModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", classify(fmt.Errorf("gemini generateContent error: %w", err))
	}

	if resp == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", fmt.Errorf("model returned empty text")
	}

	return txt, nil
}

// geminiStatus extracts the HTTP code from a genai API error, if any.
func geminiStatus(err error) int {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

var _ rag.EmbeddingsClient = (*GeminiClient)(nil)
var _ rag.CompletionClient = (*GeminiClient)(nil)
