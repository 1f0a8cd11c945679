package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/josinaldojr/smartfinder-rag/internal/rag"
)

const maxQuestionBytes = 16 << 10

// Asker is the part of rag.Service the handlers need.
type Asker interface {
	Ask(ctx context.Context, question string) (*rag.Answer, error)
}

type Handler struct {
	ragService Asker
	timeout    time.Duration
	logger     *zap.Logger
}

func NewHandler(ragService Asker, timeout time.Duration, logger *zap.Logger) *Handler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ragService: ragService, timeout: timeout, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Index serves the empty question form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, http.StatusOK, pageData{})
}

// Submit handles the form post and renders the answer with its source line.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQuestionBytes)
	if err := r.ParseForm(); err != nil {
		h.writePage(w, http.StatusBadRequest, pageData{Error: "Your question could not be read."})
		return
	}
	question := r.PostForm.Get("question")

	ans, err := h.ask(r.Context(), question)
	if err != nil {
		status, msg := errorStatus(err)
		h.writePage(w, status, pageData{Question: question, Error: msg})
		return
	}

	h.writePage(w, http.StatusOK, pageData{
		Question: question,
		Answer:   ans.Text,
		Citation: FormatCitation(ans),
		Answered: true,
	})
}

// Ask is the JSON variant of Submit.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req rag.AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	ans, err := h.ask(r.Context(), req.Question)
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	writeJSON(w, http.StatusOK, rag.AskResponse{
		Answer:    ans.Text,
		Citations: ans.Citations,
		Citation:  FormatCitation(ans),
	})
}

func (h *Handler) ask(ctx context.Context, question string) (*rag.Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	ans, err := h.ragService.Ask(ctx, question)
	if err != nil {
		h.logger.Warn("ask failed", zap.Error(err))
		return nil, err
	}
	return ans, nil
}

func (h *Handler) writePage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := renderPage(&buf, data); err != nil {
		h.logger.Error("render page", zap.Error(err))
		http.Error(w, "Something went wrong while rendering the page.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
