package http

import (
	"errors"
	"net/http"

	"github.com/josinaldojr/smartfinder-rag/internal/rag"
)

// errorStatus maps pipeline errors to a status code and a message safe to
// show to end users.
func errorStatus(err error) (int, string) {
	var (
		re *rag.RetrievalError
		ce *rag.CompletionError
	)
	switch {
	case errors.Is(err, rag.ErrEmptyQuestion):
		return http.StatusBadRequest, "Please enter a question."
	case errors.As(err, &re):
		return http.StatusServiceUnavailable, "The knowledge base is unavailable right now. Please try again later."
	case errors.As(err, &ce) && ce.Timeout:
		return http.StatusGatewayTimeout, "The assistant took too long to answer. Please try again."
	case errors.As(err, &ce):
		return http.StatusBadGateway, "The assistant could not generate an answer. Please try again later."
	default:
		return http.StatusInternalServerError, "Something went wrong while answering your question."
	}
}
