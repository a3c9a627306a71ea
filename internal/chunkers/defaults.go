package chunkers

import (
	"github.com/custodia-labs/sercha-engine/internal/chunkers/golang"
	"github.com/custodia-labs/sercha-engine/internal/chunkers/markdown"
	"github.com/custodia-labs/sercha-engine/internal/chunkers/window"
)

// NewDefaultRegistry creates a registry with the standard chunkers:
// Go and Markdown structural chunkers, window fallback for everything else.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(window.New())
	r.Register(golang.New())
	r.Register(markdown.New())
	return r
}
