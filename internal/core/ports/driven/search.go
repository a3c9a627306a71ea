package driven

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// SearchEngine provides the lexical query primitive.
// Backed by SQLite FTS5 for BM25 keyword search.
type SearchEngine interface {
	// Index adds or updates a chunk in the lexical index.
	Index(ctx context.Context, chunk domain.Chunk) error

	// Delete removes a chunk from the lexical index.
	Delete(ctx context.Context, chunkID string) error

	// Search performs a keyword search and returns matching chunk IDs
	// with BM25 scores. Results are stable for identical inputs absent
	// index mutation.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)

	// Close releases resources.
	Close() error
}

// SearchHit represents a lexical search result.
type SearchHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the relevance score (BM25 weight, higher is better).
	Score float64
}
