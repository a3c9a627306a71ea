// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - DocumentStore: Document and chunk persistence
//   - CollectionStore: Collection configuration persistence
//   - SearchEngine: Lexical BM25 query primitive
//   - Chunker / ChunkerRegistry: Semantic chunking of raw content
//   - ContentSource: Normalized ingestion stream from a source
//   - ConfigStore: Engine configuration
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - VectorIndex: Vector-similarity query primitive. Only enabled when
//     EmbeddingService is configured.
//   - EmbeddingService: Generates vector embeddings. Without it, the
//     vector workflow is disabled and the orchestrator routes to lexical.
//   - EmbeddingCache: Content-addressed embedding reuse. Without it,
//     every changed chunk is re-embedded.
//   - LLMService: Strategy classification and reranking. Without it, the
//     deterministic heuristic always decides.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, chunker, or source package
package driven
