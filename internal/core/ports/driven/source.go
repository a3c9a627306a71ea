package driven

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// ContentSource produces the normalized ingestion stream for a collection.
// Sources (filesystem, remote repository, web, relational) are external
// collaborators; the core consumes only (identifier, content, content-type)
// tuples and is agnostic to where they originated.
type ContentSource interface {
	// Kind returns the source kind identifier (e.g., "filesystem").
	Kind() string

	// Fetch streams every content item from the source. The items
	// channel closes when the scan completes; the error channel
	// reports per-item failures without stopping the stream.
	Fetch(ctx context.Context) (<-chan domain.ContentItem, <-chan error)

	// Watch streams items as they change, for sources that support it.
	// Returns domain.ErrInvalidInput otherwise.
	Watch(ctx context.Context) (<-chan domain.ContentItem, error)

	// Close releases resources.
	Close() error
}
