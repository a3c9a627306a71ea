// Package window provides the fixed-size fallback chunker used for
// unrecognized content types and for regions that failed structural parsing.
package window

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultTargetSize is the default window size in bytes.
const DefaultTargetSize = 1200

// DefaultMaxSize is the default hard limit on a window's size.
const DefaultMaxSize = 2000

// Chunker splits content into fixed-size, non-overlapping text windows.
// Windows prefer to break at a newline, then at a space, and never split
// a multi-byte character.
type Chunker struct {
	target int
	max    int
}

// Option configures the window chunker.
type Option func(*Chunker)

// WithTargetSize sets the target window size in bytes.
func WithTargetSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.target = size
		}
	}
}

// WithMaxSize sets the hard limit on a window's size in bytes.
func WithMaxSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.max = size
		}
	}
}

// New creates a new window chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		target: DefaultTargetSize,
		max:    DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.max < c.target {
		c.max = c.target
	}

	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "window"
}

// ContentTypes returns the content types this chunker handles.
// Empty: the window chunker is the registry fallback, not a specific match.
func (c *Chunker) ContentTypes() []string {
	return nil
}

// Chunk splits the document content into windows tiling the input.
func (c *Chunker) Chunk(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	spans := Spans(doc.Content, c.target, c.max)
	chunks := make([]domain.Chunk, 0, len(spans))

	for i, span := range spans {
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Position:   i,
			StartByte:  span[0],
			EndByte:    span[1],
			StartLine:  LineAt(doc.Content, span[0]),
			EndLine:    LineAt(doc.Content, span[1]-1),
			Kind:       domain.KindWindow,
			Content:    doc.Content[span[0]:span[1]],
		})
	}

	return chunks, nil
}

// Spans computes non-overlapping [start, end) byte spans of roughly target
// bytes that tile s exactly. Break points prefer a newline after the target,
// then a space, then the last rune boundary at or before max.
func Spans(s string, target, max int) [][2]int {
	if s == "" {
		return nil
	}
	if target <= 0 {
		target = DefaultTargetSize
	}
	if max < target {
		max = target
	}

	var spans [][2]int
	start := 0

	for start < len(s) {
		if len(s)-start <= max {
			spans = append(spans, [2]int{start, len(s)})
			break
		}

		end := breakPoint(s, start, target, max)
		spans = append(spans, [2]int{start, end})
		start = end
	}

	return spans
}

// breakPoint finds the best cut between start+target and start+max.
func breakPoint(s string, start, target, max int) int {
	soft := start + target
	hard := start + max
	if hard > len(s) {
		hard = len(s)
	}

	// Prefer the first newline after the target.
	if idx := strings.IndexByte(s[soft:hard], '\n'); idx >= 0 {
		return soft + idx + 1
	}

	// Then the last space before the target.
	if idx := strings.LastIndexByte(s[start:soft], ' '); idx > 0 {
		return start + idx + 1
	}

	// Otherwise cut at the target on a rune boundary.
	cut := soft
	for cut > start && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == start {
		// A single rune longer than the target cannot happen, but
		// never emit an empty span.
		_, size := utf8.DecodeRuneInString(s[start:])
		cut = start + size
	}
	return cut
}

// LineAt returns the 1-based line number containing byte offset off.
func LineAt(s string, off int) int {
	if off < 0 {
		off = 0
	}
	if off > len(s) {
		off = len(s)
	}
	return 1 + strings.Count(s[:off], "\n")
}
