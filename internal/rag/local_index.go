package rag

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// LocalIndexFile is the sqlite file expected inside a local index directory.
const LocalIndexFile = "index.db"

var ErrIndexNotFound = errors.New("index not found")

// LocalIndex is a read-only snapshot of a sqlite index directory held in
// memory and searched by cosine similarity.
//
// Expected layout of index.db:
//
//	meta(key TEXT PRIMARY KEY, value TEXT)   -- dimension, chunk_count
//	chunks(id, content, source, page, total_pages, embedding) -- embedding is a JSON array
type LocalIndex struct {
	dim    int
	chunks []indexedChunk
	logger *zap.Logger
}

type indexedChunk struct {
	Chunk
	embedding []float32
}

// LoadLocalIndex reads the index directory at dir. With verify set the
// sqlite integrity check runs and every row is validated against the
// stored metadata before the index is accepted.
func LoadLocalIndex(ctx context.Context, dir string, verify bool, logger *zap.Logger) (*LocalIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := filepath.Join(dir, LocalIndexFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("stat index: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer conn.Close()

	if verify {
		if err := integrityCheck(ctx, conn); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("index integrity checks disabled", zap.String("path", path))
	}

	meta, err := readMeta(ctx, conn)
	if err != nil {
		return nil, err
	}
	dim, err := strconv.Atoi(meta["dimension"])
	if err != nil || dim <= 0 {
		return nil, fmt.Errorf("index corrupt: invalid dimension %q", meta["dimension"])
	}

	chunks, err := readChunks(ctx, conn)
	if err != nil {
		return nil, err
	}

	if verify {
		if err := validateChunks(chunks, dim, meta["chunk_count"]); err != nil {
			return nil, err
		}
	}

	logger.Info("local index loaded",
		zap.String("path", path),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimension", dim),
		zap.Bool("verified", verify),
	)
	return &LocalIndex{dim: dim, chunks: chunks, logger: logger}, nil
}

func (l *LocalIndex) Len() int { return len(l.chunks) }

func (l *LocalIndex) Dimension() int { return l.dim }

func (l *LocalIndex) Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if len(embedding) != l.dim {
		return nil, fmt.Errorf("query embedding has dimension %d, index expects %d", len(embedding), l.dim)
	}
	if k <= 0 {
		k = defaultTopK
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]ScoredChunk, 0, len(l.chunks))
	for _, c := range l.chunks {
		results = append(results, ScoredChunk{
			Chunk: c.Chunk,
			Score: cosineSimilarity(embedding, c.embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func integrityCheck(ctx context.Context, conn *sql.DB) error {
	var status string
	if err := conn.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&status); err != nil {
		return fmt.Errorf("index integrity check: %w", err)
	}
	if status != "ok" {
		return fmt.Errorf("index corrupt: integrity check reported %q", status)
	}
	return nil
}

func readMeta(ctx context.Context, conn *sql.DB) (map[string]string, error) {
	rows, err := conn.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("read index meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan index meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func readChunks(ctx context.Context, conn *sql.DB) ([]indexedChunk, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT id, content, source, page, total_pages, embedding
		FROM chunks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("read index chunks: %w", err)
	}
	defer rows.Close()

	var chunks []indexedChunk
	for rows.Next() {
		var (
			c   indexedChunk
			raw string
		)
		if err := rows.Scan(&c.ID, &c.Text, &c.Source, &c.Page, &c.TotalPages, &raw); err != nil {
			return nil, fmt.Errorf("scan index chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &c.embedding); err != nil {
			return nil, fmt.Errorf("index corrupt: chunk %d embedding: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func validateChunks(chunks []indexedChunk, dim int, count string) error {
	if count != "" {
		n, err := strconv.Atoi(count)
		if err != nil {
			return fmt.Errorf("index corrupt: invalid chunk_count %q", count)
		}
		if n != len(chunks) {
			return fmt.Errorf("index corrupt: meta lists %d chunks, found %d", n, len(chunks))
		}
	}
	for _, c := range chunks {
		if len(c.embedding) != dim {
			return fmt.Errorf("index corrupt: chunk %d has dimension %d, expected %d", c.ID, len(c.embedding), dim)
		}
		if c.Page < 0 || c.TotalPages < 1 || c.Page >= c.TotalPages {
			return fmt.Errorf("index corrupt: chunk %d has page %d of %d", c.ID, c.Page, c.TotalPages)
		}
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ VectorIndex = (*LocalIndex)(nil)
