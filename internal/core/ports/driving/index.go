package driving

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// IndexService drives the indexing pipeline for a collection.
type IndexService interface {
	// IndexCollection consumes the source's content stream and indexes
	// it into the named collection: chunking, change detection,
	// embedding (with cache reuse) and store upserts. Per-chunk
	// failures become report warnings, never a failed pass.
	IndexCollection(ctx context.Context, name string, source driven.ContentSource) (*IndexReport, error)

	// SweepEmbeddingCache removes cached embeddings whose identity no
	// longer appears in any document. Returns the number removed.
	SweepEmbeddingCache(ctx context.Context) (int, error)
}

// IndexReport summarises one indexing pass.
type IndexReport struct {
	// Collection is the collection name.
	Collection string

	// Documents is the number of documents processed.
	Documents int

	// DocumentsFailed is the number of documents whose indexing step
	// failed; their generation was not advanced and they will be
	// retried on the next pass.
	DocumentsFailed int

	// Chunks is the total number of live chunks after the pass.
	Chunks int

	// Embedded is the number of chunks freshly embedded.
	Embedded int

	// Reused is the number of chunks served from the embedding cache
	// or carried over unchanged.
	Reused int

	// Removed is the number of chunks tombstoned.
	Removed int

	// Warnings lists non-fatal failures encountered during the pass.
	Warnings []domain.IndexWarning
}

// CollectionService manages collection configurations.
type CollectionService interface {
	// Create registers a new collection.
	Create(ctx context.Context, col *domain.Collection) error

	// Get retrieves a collection by name.
	Get(ctx context.Context, name string) (*domain.Collection, error)

	// List returns all collections.
	List(ctx context.Context) ([]domain.Collection, error)

	// Remove deletes a collection and cascades to its documents
	// and chunks.
	Remove(ctx context.Context, name string) error
}
