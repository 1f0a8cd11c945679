package rag

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyQuestion = errors.New("question is required")

// RetrievalError means the question could not be embedded or the index
// could not be searched.
type RetrievalError struct {
	Err       error
	Transient bool
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// CompletionError means the language model call failed, returned an error
// status, or ran past its deadline.
type CompletionError struct {
	Err       error
	Transient bool
	Timeout   bool
}

func (e *CompletionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("completion timed out: %v", e.Err)
	}
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// MarkTransient flags err as worth retrying. Provider adapters use it for
// 5xx responses and transport failures.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked transient or is a deadline.
func IsTransient(err error) bool {
	var t *transientError
	if errors.As(err, &t) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }
