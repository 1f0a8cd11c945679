package rag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// PgIndex searches chunks stored in Postgres with the pgvector extension.
// Tables are populated by an external indexer:
//
//	doc_chunk(id, content, source, page, total_pages)
//	doc_chunk_embedding(chunk_id, embedding vector)
type PgIndex struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPgIndex(db *pgxpool.Pool, logger *zap.Logger) *PgIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PgIndex{db: db, logger: logger}
}

// Verify checks that the tables exist, that chunk metadata is sane and that
// all stored embeddings share one dimension.
func (r *PgIndex) Verify(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping index database: %w", err)
	}

	var chunks, bad int64
	err := r.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE page < 0 OR total_pages < 1 OR page >= total_pages)
		FROM doc_chunk
	`).Scan(&chunks, &bad)
	if err != nil {
		return fmt.Errorf("inspect doc_chunk: %w", err)
	}
	if bad > 0 {
		return fmt.Errorf("index corrupt: %d chunks with invalid page metadata", bad)
	}

	var dims, orphans int64
	err = r.db.QueryRow(ctx, `
		SELECT
			count(DISTINCT vector_dims(e.embedding)),
			count(*) FILTER (WHERE c.id IS NULL)
		FROM doc_chunk_embedding e
		LEFT JOIN doc_chunk c ON c.id = e.chunk_id
	`).Scan(&dims, &orphans)
	if err != nil {
		return fmt.Errorf("inspect doc_chunk_embedding: %w", err)
	}
	if dims > 1 {
		return fmt.Errorf("index corrupt: embeddings have %d different dimensions", dims)
	}
	if orphans > 0 {
		return fmt.Errorf("index corrupt: %d embeddings reference missing chunks", orphans)
	}

	r.logger.Info("pgvector index verified", zap.Int64("chunks", chunks))
	return nil
}

// Search orders by cosine distance; the score is 1 - distance.
func (r *PgIndex) Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = defaultTopK
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx, `
		SELECT
			c.id, c.content, c.source, c.page, c.total_pages,
			1 - (e.embedding <=> $1) AS score
		FROM doc_chunk c
		JOIN doc_chunk_embedding e ON c.id = e.chunk_id
		ORDER BY e.embedding <=> $1
		LIMIT $2
	`, vec, k)
	if err != nil {
		err = fmt.Errorf("query similar chunks: %w", err)
		if pgTransient(err) {
			return nil, MarkTransient(err)
		}
		return nil, err
	}
	defer rows.Close()

	var out []ScoredChunk
	for rows.Next() {
		var c ScoredChunk
		if err := rows.Scan(
			&c.ID,
			&c.Text,
			&c.Source,
			&c.Page,
			&c.TotalPages,
			&c.Score,
		); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

// pgTransient reports connection failures and server states that clear on
// their own. Errors in the query or schema, such as a missing table, are not.
func pgTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "40"), // transaction rollback
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return true
		default:
			return false
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded)
}

var _ VectorIndex = (*PgIndex)(nil)
