package golang

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

const sampleSource = `package sample

import "fmt"

// Greeter says hello.
type Greeter struct {
	Name string
}

// Greet returns a greeting.
func (g *Greeter) Greet() string {
	return "hello " + g.Name
}

// Shout prints the greeting.
func Shout(g Greeter) {
	fmt.Println(g.Greet())
}
`

func chunkSource(t *testing.T, content string) []domain.Chunk {
	t.Helper()
	c := New()
	chunks, err := c.Chunk(context.Background(), &domain.Document{
		ID:      "d1",
		Path:    "sample.go",
		Content: content,
	})
	require.NoError(t, err)
	return chunks
}

// TestChunk_Coverage tests that chunk spans reconstruct the source exactly
func TestChunk_Coverage(t *testing.T) {
	chunks := chunkSource(t, sampleSource)
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	prevEnd := 0
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
		assert.Equal(t, prevEnd, ch.StartByte, "gap before chunk %d", i)
		rebuilt.WriteString(ch.Content)
		prevEnd = ch.EndByte
	}
	assert.Equal(t, sampleSource, rebuilt.String())
}

// TestChunk_DeclarationKinds tests one chunk per top-level declaration
func TestChunk_DeclarationKinds(t *testing.T) {
	chunks := chunkSource(t, sampleSource)

	kinds := map[domain.ChunkKind]int{}
	for _, ch := range chunks {
		kinds[ch.Kind]++
	}

	assert.Equal(t, 1, kinds[domain.KindType], "Greeter type")
	assert.Equal(t, 1, kinds[domain.KindMethod], "Greet method")
	assert.Equal(t, 1, kinds[domain.KindFunction], "Shout function")
	// package clause + import group become block chunks
	assert.GreaterOrEqual(t, kinds[domain.KindBlock], 1)
}

// TestChunk_DocCommentIncluded tests that a declaration chunk starts at its doc comment
func TestChunk_DocCommentIncluded(t *testing.T) {
	chunks := chunkSource(t, sampleSource)

	var fn *domain.Chunk
	for i := range chunks {
		if chunks[i].Kind == domain.KindFunction {
			fn = &chunks[i]
		}
	}
	require.NotNil(t, fn)
	assert.True(t, strings.HasPrefix(fn.Content, "// Shout prints the greeting."))
}

// TestChunk_MethodContext tests that methods carry the receiver type signature
func TestChunk_MethodContext(t *testing.T) {
	chunks := chunkSource(t, sampleSource)

	var method *domain.Chunk
	for i := range chunks {
		if chunks[i].Kind == domain.KindMethod {
			method = &chunks[i]
		}
	}
	require.NotNil(t, method)
	assert.Contains(t, method.Context, "type Greeter")
	assert.Contains(t, method.Context, "func (g *Greeter) Greet() string")
}

// TestChunk_ParseErrorFallsBack tests that unparsable content is windowed, not dropped
func TestChunk_ParseErrorFallsBack(t *testing.T) {
	broken := "this is not go source at all {{{ ]]]"
	chunks := chunkSource(t, broken)
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Content)
	}
	assert.Equal(t, broken, rebuilt.String())
}

// TestChunk_PartialParseKeepsDeclarations tests recovery around a bad region
func TestChunk_PartialParseKeepsDeclarations(t *testing.T) {
	partial := "package sample\n\nfunc Good() {}\n\nfunc Bad( {\n"
	chunks := chunkSource(t, partial)
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Content)
	}
	assert.Equal(t, partial, rebuilt.String())
}

// TestChunk_OversizedFunctionSplit tests that a huge function is windowed with context retained
func TestChunk_OversizedFunctionSplit(t *testing.T) {
	var b strings.Builder
	b.WriteString("package sample\n\nfunc Big() {\n")
	for i := 0; i < 500; i++ {
		b.WriteString("\t_ = \"filler line to inflate the function body beyond the limit\"\n")
	}
	b.WriteString("}\n")
	source := b.String()

	chunks := chunkSource(t, source)

	var fnChunks []domain.Chunk
	for _, ch := range chunks {
		if strings.Contains(ch.Context, "func Big()") {
			fnChunks = append(fnChunks, ch)
		}
	}
	require.Greater(t, len(fnChunks), 1, "oversized function should split")
	assert.Equal(t, domain.KindFunction, fnChunks[0].Kind)
	for _, ch := range fnChunks[1:] {
		assert.Equal(t, domain.KindWindow, ch.Kind)
	}

	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Content)
	}
	assert.Equal(t, source, rebuilt.String())
}

func TestContentTypes(t *testing.T) {
	assert.Equal(t, []string{"text/x-go"}, New().ContentTypes())
}
