package chunkers

import (
	"sync"

	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ChunkerRegistry = (*Registry)(nil)

// Registry dispatches content types to chunkers, with a fallback for
// unrecognized types.
type Registry struct {
	mu       sync.RWMutex
	byType   map[string]driven.Chunker
	fallback driven.Chunker
}

// NewRegistry creates an empty registry with the given fallback chunker.
func NewRegistry(fallback driven.Chunker) *Registry {
	return &Registry{
		byType:   make(map[string]driven.Chunker),
		fallback: fallback,
	}
}

// Register adds a chunker for its declared content types.
func (r *Registry) Register(c driven.Chunker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ct := range c.ContentTypes() {
		r.byType[ct] = c
	}
}

// ForContentType returns the chunker handling the given content type,
// falling back to the window chunker for unrecognized types.
func (r *Registry) ForContentType(contentType string) driven.Chunker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.byType[contentType]; ok {
		return c
	}
	return r.fallback
}

// SupportedContentTypes returns all registered content types.
func (r *Registry) SupportedContentTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byType))
	for ct := range r.byType {
		types = append(types, ct)
	}
	return types
}
