package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// searchEngine implements driven.SearchEngine on top of an FTS5 table.
type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Index adds or updates a chunk in the lexical index.
func (s *searchEngine) Index(ctx context.Context, chunk domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks_fts WHERE chunk_id = ?", chunk.ID); err != nil {
		return fmt.Errorf("clearing indexed chunk: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO chunks_fts (chunk_id, content, context) VALUES (?, ?, ?)",
		chunk.ID, chunk.Content, chunk.Context); err != nil {
		return fmt.Errorf("indexing chunk: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes a chunk from the lexical index.
func (s *searchEngine) Delete(ctx context.Context, chunkID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunks_fts WHERE chunk_id = ?", chunkID)
	if err != nil {
		return fmt.Errorf("deleting indexed chunk: %w", err)
	}
	return nil
}

// Search performs a BM25 keyword search. FTS5's rank column is the
// negated BM25 weight (lower is better); it is negated back so higher
// means more relevant. Ties break on chunk ID for stable output.
func (s *searchEngine) Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, -rank AS score
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY rank, chunk_id
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying lexical index: %w", err)
	}
	defer rows.Close()

	var hits []driven.SearchHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.SearchHit
		if err := rows.Scan(&hit.ChunkID, &hit.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return hits, nil
}

// Close is a no-op; the underlying store owns the connection.
func (s *searchEngine) Close() error {
	return nil
}

// buildMatchQuery turns free text into an FTS5 OR query of quoted terms,
// neutralizing FTS5 operator syntax in user input.
func buildMatchQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}
