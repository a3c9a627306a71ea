package domain

import (
	"strings"
	"time"
)

// PathClass classifies a document path for scoring purposes.
type PathClass string

const (
	// PathClassProduction is the default classification, no penalty.
	PathClassProduction PathClass = "production"

	// PathClassTest marks test files, scored with a penalty.
	PathClassTest PathClass = "test"

	// PathClassVendored marks vendored or generated trees, scored with
	// a heavier penalty.
	PathClassVendored PathClass = "vendored"
)

// Penalty returns the scoring multiplier for the path class.
func (p PathClass) Penalty() float64 {
	switch p {
	case PathClassTest:
		return 0.5
	case PathClassVendored:
		return 0.25
	default:
		return 1.0
	}
}

// ClassifyPath derives a PathClass from a document path.
func ClassifyPath(path string) PathClass {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "/vendor/"),
		strings.Contains(lower, "/node_modules/"),
		strings.Contains(lower, "/.git/"):
		return PathClassVendored
	case strings.HasSuffix(lower, "_test.go"),
		strings.Contains(lower, "/test/"),
		strings.Contains(lower, "/tests/"),
		strings.Contains(lower, "/testdata/"),
		strings.HasSuffix(lower, ".test.ts"),
		strings.HasSuffix(lower, ".test.js"),
		strings.HasSuffix(lower, "_test.py"):
		return PathClassTest
	default:
		return PathClassProduction
	}
}

// MaxImportance is the upper bound of the normalized importance scale.
const MaxImportance = 10.0

// Document represents one indexed unit of content (a file, page, row).
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// CollectionID links to the owning Collection.
	CollectionID string

	// Path is the display path within the source.
	Path string

	// Title is the human-readable title, derived or provided.
	Title string

	// ContentType is the content type tag (e.g., "text/x-go").
	ContentType string

	// Content is the full raw text content.
	Content string

	// Generation is a counter incremented on each re-index pass.
	Generation int64

	// Importance is a relevance weight on a 0..MaxImportance scale,
	// externally supplied or derived from reference density.
	Importance float64

	// Class is the path classification used for scoring penalties.
	Class PathClass

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-indexed.
	UpdatedAt time.Time
}

// EffectiveImportance returns the importance weight, defaulting to 1.0
// when unset and clamped to the normalized scale.
func (d *Document) EffectiveImportance() float64 {
	if d.Importance <= 0 {
		return 1.0
	}
	if d.Importance > MaxImportance {
		return MaxImportance
	}
	return d.Importance
}

// ChunkKind tags the structural origin of a chunk.
type ChunkKind string

const (
	// KindFunction is a top-level function declaration.
	KindFunction ChunkKind = "function"

	// KindMethod is a method declaration.
	KindMethod ChunkKind = "method"

	// KindType is a type, class or interface declaration.
	KindType ChunkKind = "type"

	// KindBlock is a structural block such as a markdown section
	// or a var/const group.
	KindBlock ChunkKind = "block"

	// KindWindow is a fallback fixed-size text window.
	KindWindow ChunkKind = "window"
)

// Chunk represents a retrievable sub-unit of a Document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// StartByte and EndByte delimit the chunk's span in the
	// document content. Spans tile the document with no gaps.
	StartByte int
	EndByte   int

	// StartLine and EndLine are 1-based line bounds, informational.
	StartLine int
	EndLine   int

	// Kind is the structural kind tag.
	Kind ChunkKind

	// Content is the raw text of the chunk.
	Content string

	// Context is bounded surrounding context included in the content
	// identity: the preceding doc comment and the enclosing
	// declaration signature. Not part of the span.
	Context string

	// Identity is the content identity hash. Derived data, computed
	// from (Kind, Content, Context); never set by hand.
	Identity string

	// Embedding is the vector representation, if one exists.
	Embedding []float32
}

// ContentItem is one element of the normalized ingestion stream produced
// by a content source.
type ContentItem struct {
	// ID is the source-assigned stable identifier (often the path).
	ID string

	// Path is the display path or URL.
	Path string

	// Title is the display title, may be empty.
	Title string

	// ContentType is the content type tag.
	ContentType string

	// Content is the raw content.
	Content []byte

	// Importance is an optional externally supplied weight.
	// Zero means unset.
	Importance float64

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]string
}
