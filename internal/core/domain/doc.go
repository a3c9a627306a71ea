// Package domain defines the core business entities for the Sercha engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Collection: A named logical grouping of documents from one source
//   - Document: An indexed unit of content (file, page, row)
//   - Chunk: A semantically bounded retrievable sub-unit of a document
//   - SearchResult: A per-query projection with its score breakdown
//   - StrategyDecision: The chosen query workflow for a given query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
