package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownCollection indicates a query filter named a collection
	// that does not exist. Rejected before any query primitive runs.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Strategy classification and reranking fall back to deterministic
	// behaviour.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Vector/semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the lexical index is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Semantic similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrModelMismatch indicates the embedding cache was written under a
	// different embedding-model configuration. Cached vectors from
	// another model map to a different semantic space and are refused.
	ErrModelMismatch = errors.New("embedding model configuration mismatch")

	// ErrDimensionMismatch indicates a vector's dimensionality does not
	// match the configured embedding model.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// IndexWarning records a non-fatal failure during indexing, such as a
// single chunk's embedding call failing. Warnings are surfaced on the
// index report; they never abort the indexing pass.
type IndexWarning struct {
	// DocumentPath identifies the affected document.
	DocumentPath string

	// ChunkPosition is the ordinal of the affected chunk, -1 when the
	// warning applies to the whole document.
	ChunkPosition int

	// Message describes the failure.
	Message string
}
