// Package golang provides a grammar-aware chunker for Go source files.
//
// Each top-level declaration (function, method, type, var/const group)
// becomes one chunk, including its immediately preceding doc comment block.
// Methods are chunked as children of their receiver type: the method chunk
// carries the receiver declaration's condensed signature as context, while
// the type chunk itself holds only the declaration body, so container-level
// search works without duplicating method bodies.
//
// A parse error never aborts chunking: regions that fail to parse fall back
// to fixed-size windows and indexing continues. Content is never dropped.
package golang

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/custodia-labs/sercha-engine/internal/chunkers/window"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultMaxDeclSize is the size above which a single declaration is
// split into windows.
const DefaultMaxDeclSize = 4000

// Chunker splits Go source into declaration-level chunks.
type Chunker struct {
	maxDeclSize int
	fallback    *window.Chunker
}

// Option configures the Go chunker.
type Option func(*Chunker)

// WithMaxDeclSize sets the size limit above which a declaration is split.
func WithMaxDeclSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxDeclSize = size
		}
	}
}

// New creates a new Go chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxDeclSize: DefaultMaxDeclSize,
		fallback:    window.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "golang"
}

// ContentTypes returns the content types this chunker handles.
func (c *Chunker) ContentTypes() []string {
	return []string{"text/x-go"}
}

// declSpan is an intermediate declaration region before tiling.
type declSpan struct {
	start   int
	end     int
	kind    domain.ChunkKind
	context string
}

// Chunk splits the document into declaration-level chunks tiling the input.
func (c *Chunker) Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if doc.Content == "" {
		return nil, nil
	}

	fset := token.NewFileSet()
	file, parseErr := parser.ParseFile(fset, doc.Path, doc.Content, parser.ParseComments)
	if file == nil {
		// Nothing usable came back; window the whole file.
		logger.Warn("Go parse failed for %s: %v (falling back to windows)", doc.Path, parseErr)
		return c.fallback.Chunk(ctx, doc)
	}
	if parseErr != nil {
		logger.Debug("Partial Go parse for %s: %v", doc.Path, parseErr)
	}

	tf := fset.File(file.Pos())
	if tf == nil {
		return c.fallback.Chunk(ctx, doc)
	}

	spans := c.declSpans(file, tf, doc.Content)

	// Gaps between declarations (package clause, imports, free comments,
	// unparsable regions) are windowed when the parse was partial and
	// kept as structural blocks otherwise.
	gapKind := domain.KindBlock
	if parseErr != nil {
		gapKind = domain.KindWindow
	}

	return c.tile(doc, spans, gapKind), nil
}

// declSpans extracts ordered, clipped declaration regions from the AST.
func (c *Chunker) declSpans(file *ast.File, tf *token.File, content string) []declSpan {
	spans := make([]declSpan, 0, len(file.Decls))
	prevEnd := 0

	for _, decl := range file.Decls {
		start := safeOffset(tf, decl.Pos(), len(content))
		end := safeOffset(tf, decl.End(), len(content))

		if doc := declDoc(decl); doc != nil {
			start = safeOffset(tf, doc.Pos(), len(content))
		}

		// Clip against the previous declaration so spans never overlap.
		if start < prevEnd {
			start = prevEnd
		}
		if end <= start {
			continue
		}

		kind, declCtx := c.describe(decl, tf, content)
		spans = append(spans, declSpan{start: start, end: end, kind: kind, context: declCtx})
		prevEnd = end
	}

	return spans
}

// describe derives the structural kind and bounded context for a declaration.
func (c *Chunker) describe(decl ast.Decl, tf *token.File, content string) (domain.ChunkKind, string) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		sig := signature(d, tf, content)
		if d.Recv != nil && len(d.Recv.List) > 0 {
			// Method: context includes the enclosing type's signature.
			recv := receiverTypeName(d.Recv.List[0].Type)
			return domain.KindMethod, fmt.Sprintf("type %s\n%s", recv, sig)
		}
		return domain.KindFunction, sig

	case *ast.GenDecl:
		if d.Tok == token.TYPE {
			return domain.KindType, typeSignature(d)
		}
		return domain.KindBlock, ""

	default:
		return domain.KindBlock, ""
	}
}

// tile converts declaration spans into chunks covering the whole input,
// filling gaps and splitting oversized regions into windows.
func (c *Chunker) tile(doc *domain.Document, spans []declSpan, gapKind domain.ChunkKind) []domain.Chunk {
	content := doc.Content
	var chunks []domain.Chunk

	emit := func(start, end int, kind domain.ChunkKind, declCtx string) {
		if end <= start {
			return
		}
		region := content[start:end]

		if len(region) > c.maxDeclSize {
			// Oversized region: split into windows. The first window
			// keeps the structural kind; the rest carry the same
			// context so the declaration stays findable.
			for i, w := range window.Spans(region, window.DefaultTargetSize, window.DefaultMaxSize) {
				k := domain.KindWindow
				if i == 0 {
					k = kind
				}
				chunks = append(chunks, c.newChunk(doc, start+w[0], start+w[1], k, declCtx))
			}
			return
		}

		chunks = append(chunks, c.newChunk(doc, start, end, kind, declCtx))
	}

	cursor := 0
	for _, s := range spans {
		if s.start > cursor {
			emit(cursor, s.start, gapKind, "")
		}
		emit(s.start, s.end, s.kind, s.context)
		cursor = s.end
	}
	if cursor < len(content) {
		emit(cursor, len(content), gapKind, "")
	}

	for i := range chunks {
		chunks[i].Position = i
	}

	return chunks
}

func (c *Chunker) newChunk(doc *domain.Document, start, end int, kind domain.ChunkKind, declCtx string) domain.Chunk {
	return domain.Chunk{
		DocumentID: doc.ID,
		StartByte:  start,
		EndByte:    end,
		StartLine:  window.LineAt(doc.Content, start),
		EndLine:    window.LineAt(doc.Content, end-1),
		Kind:       kind,
		Content:    doc.Content[start:end],
		Context:    declCtx,
	}
}

// declDoc returns the doc comment group attached to a declaration.
func declDoc(decl ast.Decl) *ast.CommentGroup {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		return d.Doc
	case *ast.GenDecl:
		return d.Doc
	default:
		return nil
	}
}

// signature returns the function signature text up to the body brace.
func signature(d *ast.FuncDecl, tf *token.File, content string) string {
	start := safeOffset(tf, d.Pos(), len(content))
	end := safeOffset(tf, d.End(), len(content))
	if d.Body != nil {
		end = safeOffset(tf, d.Body.Pos(), len(content))
	}
	return strings.TrimSpace(content[start:end])
}

// typeSignature returns a condensed "type Name" signature for a type decl.
func typeSignature(d *ast.GenDecl) string {
	names := make([]string, 0, len(d.Specs))
	for _, spec := range d.Specs {
		if ts, ok := spec.(*ast.TypeSpec); ok && ts.Name != nil {
			names = append(names, ts.Name.Name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "type " + strings.Join(names, ", ")
}

// receiverTypeName extracts the base type name of a method receiver.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

// safeOffset converts a token position to a byte offset, clamped to bounds.
// Broken ASTs can carry positions outside the file.
func safeOffset(tf *token.File, pos token.Pos, limit int) int {
	if !pos.IsValid() {
		return 0
	}
	p := int(pos) - tf.Base()
	if p < 0 {
		return 0
	}
	if p > tf.Size() {
		p = tf.Size()
	}
	if p > limit {
		return limit
	}
	return p
}
