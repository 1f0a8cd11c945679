package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTopK = 4

type Options struct {
	TopK              int
	CitationMode      CitationMode
	DontKnow          string
	AskOnEmptyContext bool
	LanguageHint      bool
	CompletionTimeout time.Duration
	Retry             RetryPolicy
}

type Service struct {
	embeddings EmbeddingsClient
	index      VectorIndex
	llm        CompletionClient
	prompt     PromptBuilder
	opts       Options
	logger     *zap.Logger
}

func NewService(embeddings EmbeddingsClient, index VectorIndex, llm CompletionClient, opts Options, logger *zap.Logger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.CitationMode == "" {
		opts.CitationMode = CitationTop1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	prompt := PromptBuilder{DontKnow: opts.DontKnow, LanguageHint: opts.LanguageHint}
	opts.DontKnow = prompt.dontKnow()

	return &Service{
		embeddings: embeddings,
		index:      index,
		llm:        llm,
		prompt:     prompt,
		opts:       opts,
		logger:     logger,
	}
}

// Ask answers a single question. On failure the returned Answer is nil and
// the error is ErrEmptyQuestion, a *RetrievalError or a *CompletionError.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}
	logger := s.logger.With(zap.Int("question_len", len(q)))

	results, err := s.retrieve(ctx, q)
	if err != nil {
		logger.Error("retrieval failed", zap.Error(err))
		return nil, err
	}
	chunks := chunksOf(results)

	if len(chunks) == 0 {
		// nothing in the index matched
		logger.Warn("empty retrieval context", zap.Bool("ask_on_empty", s.opts.AskOnEmptyContext))
		if !s.opts.AskOnEmptyContext {
			return &Answer{Text: s.opts.DontKnow, Citations: []Chunk{}}, nil
		}
	}

	prompt := s.prompt.Build(chunks, q)

	text, err := s.complete(ctx, prompt)
	if err != nil {
		logger.Error("completion failed", zap.Error(err))
		return nil, err
	}

	logger.Info("question answered",
		zap.Int("chunks", len(chunks)),
		zap.Int("answer_len", len(text)),
	)
	return &Answer{
		Text:      ApplyPhoneRule(text),
		Citations: s.citations(chunks),
	}, nil
}

func (s *Service) retrieve(ctx context.Context, q string) ([]ScoredChunk, error) {
	var results []ScoredChunk
	err := s.opts.Retry.do(ctx, s.logger, "retrieval", func(ctx context.Context) error {
		vec, err := s.embeddings.Embed(ctx, q)
		if err != nil {
			return &RetrievalError{Err: err, Transient: IsTransient(err)}
		}
		res, err := s.index.Search(ctx, vec, s.opts.TopK)
		if err != nil {
			return &RetrievalError{Err: err, Transient: IsTransient(err)}
		}
		results = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(results) > s.opts.TopK {
		results = results[:s.opts.TopK]
	}
	return results, nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	var text string
	err := s.opts.Retry.do(ctx, s.logger, "completion", func(ctx context.Context) error {
		callCtx := ctx
		if s.opts.CompletionTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.opts.CompletionTimeout)
			defer cancel()
		}
		out, err := s.llm.Complete(callCtx, prompt)
		if err != nil {
			timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)
			return &CompletionError{Err: err, Transient: timeout || IsTransient(err), Timeout: timeout}
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return &CompletionError{Err: errors.New("model returned empty text")}
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) citations(chunks []Chunk) []Chunk {
	if len(chunks) == 0 {
		return []Chunk{}
	}
	if s.opts.CitationMode == CitationAll {
		out := make([]Chunk, len(chunks))
		copy(out, chunks)
		return out
	}
	return []Chunk{chunks[0]}
}
