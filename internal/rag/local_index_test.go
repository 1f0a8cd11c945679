package rag

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixtureRow struct {
	chunk     Chunk
	embedding []float32
}

// writeIndex creates dir/index.db the way the external indexer lays it out.
func writeIndex(t *testing.T, dim int, count string, rows []fixtureRow) string {
	t.Helper()
	dir := t.TempDir()
	conn, err := sql.Open("sqlite3", filepath.Join(dir, LocalIndexFile))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`
		CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		CREATE TABLE chunks (
			id INTEGER PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT NOT NULL,
			page INTEGER NOT NULL,
			total_pages INTEGER NOT NULL,
			embedding TEXT NOT NULL
		);
	`)
	require.NoError(t, err)

	_, err = conn.Exec(`INSERT INTO meta (key, value) VALUES ('dimension', ?)`, strconv.Itoa(dim))
	require.NoError(t, err)
	if count != "" {
		_, err = conn.Exec(`INSERT INTO meta (key, value) VALUES ('chunk_count', ?)`, count)
		require.NoError(t, err)
	}

	for i, r := range rows {
		raw, err := json.Marshal(r.embedding)
		require.NoError(t, err)
		_, err = conn.Exec(
			`INSERT INTO chunks (id, content, source, page, total_pages, embedding) VALUES (?, ?, ?, ?, ?, ?)`,
			i+1, r.chunk.Text, r.chunk.Source, r.chunk.Page, r.chunk.TotalPages, string(raw),
		)
		require.NoError(t, err)
	}
	return dir
}

func sampleRows() []fixtureRow {
	return []fixtureRow{
		{chunk: Chunk{Text: "Returns accepted within 30 days.", Source: "faq.pdf", Page: 2, TotalPages: 5}, embedding: []float32{1, 0, 0}},
		{chunk: Chunk{Text: "Shipping takes 3-5 days.", Source: "faq.pdf", Page: 3, TotalPages: 5}, embedding: []float32{0, 1, 0}},
		{chunk: Chunk{Text: "Call 3219160283.", Source: "contact.pdf", Page: 0, TotalPages: 1}, embedding: []float32{0.7, 0.7, 0}},
	}
}

func TestLoadLocalIndex_SearchRanksByCosine(t *testing.T) {
	dir := writeIndex(t, 3, "3", sampleRows())

	idx, err := LoadLocalIndex(context.Background(), dir, true, nil)
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())
	require.Equal(t, 3, idx.Dimension())

	res, err := idx.Search(context.Background(), []float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "Returns accepted within 30 days.", res[0].Text)
	require.Equal(t, "Call 3219160283.", res[1].Text)
	require.GreaterOrEqual(t, res[0].Score, res[1].Score)
	require.Equal(t, 2, res[0].Page)
	require.Equal(t, 5, res[0].TotalPages)
	require.Equal(t, "faq.pdf", res[0].Source)
}

func TestLocalIndex_SearchTopKBounds(t *testing.T) {
	idx, err := LoadLocalIndex(context.Background(), writeIndex(t, 3, "", sampleRows()), true, nil)
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, res, 3)

	res, err = idx.Search(context.Background(), []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	require.Len(t, res, 3)
}

func TestLocalIndex_EmptyIndex(t *testing.T) {
	idx, err := LoadLocalIndex(context.Background(), writeIndex(t, 3, "0", nil), true, nil)
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestLocalIndex_DimensionMismatch(t *testing.T) {
	idx, err := LoadLocalIndex(context.Background(), writeIndex(t, 3, "", sampleRows()), true, nil)
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0}, 4)
	require.Error(t, err)
}

func TestLoadLocalIndex_Missing(t *testing.T) {
	_, err := LoadLocalIndex(context.Background(), filepath.Join(t.TempDir(), "nope"), true, nil)
	require.ErrorIs(t, err, ErrIndexNotFound)
}

func TestLoadLocalIndex_VerifyRejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name  string
		count string
		rows  []fixtureRow
	}{
		{
			name:  "count mismatch",
			count: "5",
			rows:  sampleRows(),
		},
		{
			name: "wrong dimension",
			rows: []fixtureRow{{chunk: Chunk{Text: "x", Source: "a", TotalPages: 1}, embedding: []float32{1, 0}}},
		},
		{
			name: "page out of range",
			rows: []fixtureRow{{chunk: Chunk{Text: "x", Source: "a", Page: 4, TotalPages: 4}, embedding: []float32{1, 0, 0}}},
		},
		{
			name: "zero total pages",
			rows: []fixtureRow{{chunk: Chunk{Text: "x", Source: "a", Page: 0, TotalPages: 0}, embedding: []float32{1, 0, 0}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeIndex(t, 3, tt.count, tt.rows)

			_, err := LoadLocalIndex(context.Background(), dir, true, nil)
			require.Error(t, err)

			// opting out of checks loads the same directory
			idx, err := LoadLocalIndex(context.Background(), dir, false, nil)
			require.NoError(t, err)
			require.Equal(t, len(tt.rows), idx.Len())
		})
	}
}

func TestLoadLocalIndex_NotSqlite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LocalIndexFile), []byte("definitely not a database"), 0o644))

	_, err := LoadLocalIndex(context.Background(), dir, true, nil)
	require.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	require.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	require.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 0}))
}
