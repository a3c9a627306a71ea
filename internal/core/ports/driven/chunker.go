package driven

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// Chunker splits raw document content into an ordered, non-overlapping
// sequence of chunks covering the entire input.
//
// Contract: concatenating the produced spans reconstructs the document
// content exactly - no gaps, no spans beyond input bounds. A parse error
// must not abort chunking; implementations fall back to fixed-size windows
// for the affected region and continue. Content is never dropped silently.
type Chunker interface {
	// Name returns the chunker name.
	Name() string

	// ContentTypes returns the content types this chunker handles.
	ContentTypes() []string

	// Chunk splits the document content. Chunks are returned in span
	// order with Position, byte/line spans, Kind, Content and Context
	// populated. Identity is computed by the caller.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// ChunkerRegistry selects the appropriate chunker for a content type.
type ChunkerRegistry interface {
	// ForContentType returns the chunker handling the given content
	// type, falling back to the window chunker for unrecognized types.
	ForContentType(contentType string) Chunker

	// Register adds a chunker for its declared content types.
	Register(c Chunker)
}
