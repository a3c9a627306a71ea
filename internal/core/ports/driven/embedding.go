// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector/semantic search is disabled.
//
// Note: This is separate from VectorIndex which stores and searches vectors,
// and from EmbeddingCache which reuses them. EmbeddingService generates
// vectors; the others store them.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This is determined by the model and must match the vector index.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache is a persistent, content-addressed store mapping a chunk's
// content identity to its vector. Entries have no TTL; they persist until an
// explicit clear or until a sweep removes identities no longer referenced by
// any live chunk.
//
// The cache is keyed by (identity, model fingerprint): entries written under
// a different embedding-model configuration are never served, because the
// same identity maps to a different semantic space under another model.
type EmbeddingCache interface {
	// Get returns the cached vector for a content identity.
	// Returns domain.ErrNotFound when no entry exists for the active
	// model fingerprint.
	Get(ctx context.Context, identity string) ([]float32, error)

	// Put stores a vector for a content identity. A put is atomic: the
	// entry is either fully written and retrievable, or absent.
	Put(ctx context.Context, identity string, vector []float32) error

	// Fingerprint returns the active embedding-model fingerprint.
	Fingerprint() string

	// Sweep lazily removes entries whose identity is not in the live
	// set. Returns the number of entries removed.
	Sweep(ctx context.Context, live map[string]struct{}) (int, error)

	// Clear removes every entry. The only eager eviction path.
	Clear(ctx context.Context) error
}
