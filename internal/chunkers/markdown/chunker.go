// Package markdown provides a structure-aware chunker for Markdown.
//
// Sections delimited by headings become chunks; each chunk carries the
// breadcrumb of its enclosing headings as context so nested sections stay
// findable at container level. Fenced code blocks never start a section.
// Oversized sections fall back to fixed-size windows.
package markdown

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-engine/internal/chunkers/window"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultMaxSectionSize is the size above which a section is windowed.
const DefaultMaxSectionSize = 4000

// Chunker splits Markdown into heading-delimited section chunks.
type Chunker struct {
	maxSectionSize int
}

// Option configures the markdown chunker.
type Option func(*Chunker)

// WithMaxSectionSize sets the size limit above which a section is split.
func WithMaxSectionSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSectionSize = size
		}
	}
}

// New creates a new markdown chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxSectionSize: DefaultMaxSectionSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "markdown"
}

// ContentTypes returns the content types this chunker handles.
func (c *Chunker) ContentTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// section is a heading-delimited region before tiling.
type section struct {
	start   int
	end     int
	context string
}

// Chunk splits the document into section chunks tiling the input.
func (c *Chunker) Chunk(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if doc.Content == "" {
		return nil, nil
	}

	sections := splitSections(doc.Content)
	var chunks []domain.Chunk

	for _, sec := range sections {
		region := doc.Content[sec.start:sec.end]

		if len(region) > c.maxSectionSize {
			for i, w := range window.Spans(region, window.DefaultTargetSize, window.DefaultMaxSize) {
				kind := domain.KindWindow
				if i == 0 {
					kind = domain.KindBlock
				}
				chunks = append(chunks, newChunk(doc, sec.start+w[0], sec.start+w[1], kind, sec.context))
			}
			continue
		}

		chunks = append(chunks, newChunk(doc, sec.start, sec.end, domain.KindBlock, sec.context))
	}

	for i := range chunks {
		chunks[i].Position = i
	}

	return chunks, nil
}

func newChunk(doc *domain.Document, start, end int, kind domain.ChunkKind, sectionCtx string) domain.Chunk {
	return domain.Chunk{
		DocumentID: doc.ID,
		StartByte:  start,
		EndByte:    end,
		StartLine:  window.LineAt(doc.Content, start),
		EndLine:    window.LineAt(doc.Content, end-1),
		Kind:       kind,
		Content:    doc.Content[start:end],
		Context:    sectionCtx,
	}
}

// splitSections finds heading-delimited sections covering the whole input.
// The context of each section is the breadcrumb of enclosing headings.
func splitSections(content string) []section {
	type heading struct {
		level int
		title string
	}

	var sections []section
	var stack []heading

	breadcrumb := func() string {
		titles := make([]string, len(stack))
		for i, h := range stack {
			titles[i] = h.title
		}
		return strings.Join(titles, " > ")
	}

	secStart := 0
	secContext := ""
	inFence := false
	offset := 0

	flush := func(end int) {
		if end > secStart {
			sections = append(sections, section{start: secStart, end: end, context: secContext})
		}
	}

	for offset < len(content) {
		lineEnd := strings.IndexByte(content[offset:], '\n')
		var next int
		if lineEnd < 0 {
			lineEnd = len(content)
			next = lineEnd
		} else {
			lineEnd += offset
			next = lineEnd + 1
		}
		line := content[offset:lineEnd]
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}

		if !inFence {
			if level, title, ok := parseHeading(trimmed); ok {
				flush(offset)
				// Pop headings at the same or deeper level.
				for len(stack) > 0 && stack[len(stack)-1].level >= level {
					stack = stack[:len(stack)-1]
				}
				secStart = offset
				secContext = breadcrumb()
				stack = append(stack, heading{level: level, title: title})
			}
		}

		offset = next
	}

	flush(len(content))
	return sections
}

// parseHeading parses an ATX heading line.
func parseHeading(line string) (level int, title string, ok bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level == len(line) || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level:]), true
}
