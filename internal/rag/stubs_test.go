package rag

import (
	"context"
	"sync"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.vec == nil {
		return []float32{1, 0}, nil
	}
	return s.vec, nil
}

type stubIndex struct {
	results []ScoredChunk
	errs    []error // consumed one per call before results are returned

	mu    sync.Mutex
	calls int
	lastK int
}

func (s *stubIndex) Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastK = k
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return s.results, nil
}

// stubLLM echoes reply, or the prompt itself when reply is empty.
type stubLLM struct {
	reply string
	errs  []error
	block bool

	mu      sync.Mutex
	calls   int
	prompts []string
}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	var err error
	if len(s.errs) > 0 {
		err = s.errs[0]
		s.errs = s.errs[1:]
	}
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	if s.reply == "" {
		return prompt, nil
	}
	return s.reply, nil
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
