package driven

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document. Upserts are keyed by
	// (collection, path) so re-runs against the same store keep stable
	// document identifiers for unchanged content.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document. Upserts are idempotent
	// keyed by (document, position); an existing chunk at the same
	// position keeps its identifier.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByPath retrieves a document by collection and path.
	GetDocumentByPath(ctx context.Context, collectionID, path string) (*domain.Document, error)

	// GetChunks retrieves the live (non-tombstoned) chunks for a
	// document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// TombstoneChunk marks a chunk deleted without physical compaction.
	// Tombstoned chunks are excluded from query results.
	TombstoneChunk(ctx context.Context, chunkID string) error

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns documents for a collection.
	ListDocuments(ctx context.Context, collectionID string) ([]domain.Document, error)

	// LiveIdentities returns the set of content identities referenced by
	// any live chunk. Used for lazy garbage collection of the embedding
	// cache.
	LiveIdentities(ctx context.Context) (map[string]struct{}, error)
}

// CollectionStore persists collection configurations.
type CollectionStore interface {
	// Save stores or updates a collection.
	Save(ctx context.Context, col *domain.Collection) error

	// Get retrieves a collection by ID.
	Get(ctx context.Context, id string) (*domain.Collection, error)

	// GetByName retrieves a collection by its unique name.
	GetByName(ctx context.Context, name string) (*domain.Collection, error)

	// List returns all collections.
	List(ctx context.Context) ([]domain.Collection, error)

	// Delete removes a collection. Removal cascades to its documents
	// and chunks.
	Delete(ctx context.Context, id string) error
}
