package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/josinaldojr/smartfinder-rag/internal/rag"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient talks to any OpenAI-compatible chat completion endpoint;
// Groq is the default host.
type GroqClient struct {
	llm   *openai.LLM
	model string
}

func NewGroqClient(apiKey, model, baseURL string) (*GroqClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API_KEY")
	}
	if model == "" {
		return nil, fmt.Errorf("missing MODEL_NAME")
	}
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}

	l, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithBaseURL(strings.TrimRight(baseURL, "/")),
	)
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}
	return &GroqClient{llm: l, model: model}, nil
}

func (c *GroqClient) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", classify(fmt.Errorf("%s completion: %w", c.model, err))
	}
	return strings.TrimSpace(out), nil
}

var _ rag.CompletionClient = (*GroqClient)(nil)
