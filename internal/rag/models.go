package rag

// CitationMode controls how many of the prompt chunks are cited.
type CitationMode string

const (
	// CitationTop1 cites only the highest ranked chunk.
	CitationTop1 CitationMode = "top1"
	CitationAll  CitationMode = "all"
)

// Chunk
// A retrieved fragment of a source document. Page is 0-indexed.
type Chunk struct {
	ID         int64  `json:"id,omitempty"`
	Text       string `json:"text"`
	Source     string `json:"source"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
}

// ScoredChunk pairs a chunk with its similarity to the query; higher is closer.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// Answer
// Generated text plus the chunks it was grounded on, in prompt order.
type Answer struct {
	Text      string  `json:"answer"`
	Citations []Chunk `json:"citations"`
}

// AskRequest
// Payload of the /api/ask endpoint.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse
// JSON rendering of an Answer with its formatted citation line.
type AskResponse struct {
	Answer    string  `json:"answer"`
	Citations []Chunk `json:"citations"`
	Citation  string  `json:"citation"`
}

func chunksOf(results []ScoredChunk) []Chunk {
	out := make([]Chunk, 0, len(results))
	for _, r := range results {
		out = append(out, r.Chunk)
	}
	return out
}
