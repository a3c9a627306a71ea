package markdown

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

const sampleDoc = `Intro paragraph before any heading.

# Guide

Welcome to the guide.

## Install

Run the installer.

## Usage

Pass a query.

# Reference

See the API.
`

func chunkDoc(t *testing.T, content string) []domain.Chunk {
	t.Helper()
	chunks, err := New().Chunk(context.Background(), &domain.Document{ID: "d1", Content: content})
	require.NoError(t, err)
	return chunks
}

// TestChunk_Coverage tests that section spans reconstruct the input exactly
func TestChunk_Coverage(t *testing.T) {
	chunks := chunkDoc(t, sampleDoc)
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	prevEnd := 0
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
		assert.Equal(t, prevEnd, ch.StartByte, "gap before chunk %d", i)
		rebuilt.WriteString(ch.Content)
		prevEnd = ch.EndByte
	}
	assert.Equal(t, sampleDoc, rebuilt.String())
}

// TestChunk_SectionsAtHeadings tests one chunk per heading section plus preamble
func TestChunk_SectionsAtHeadings(t *testing.T) {
	chunks := chunkDoc(t, sampleDoc)
	require.Len(t, chunks, 5)

	assert.True(t, strings.HasPrefix(chunks[0].Content, "Intro paragraph"))
	assert.True(t, strings.HasPrefix(chunks[1].Content, "# Guide"))
	assert.True(t, strings.HasPrefix(chunks[2].Content, "## Install"))
	assert.True(t, strings.HasPrefix(chunks[3].Content, "## Usage"))
	assert.True(t, strings.HasPrefix(chunks[4].Content, "# Reference"))
}

// TestChunk_BreadcrumbContext tests nested sections carry enclosing headings
func TestChunk_BreadcrumbContext(t *testing.T) {
	chunks := chunkDoc(t, sampleDoc)

	assert.Empty(t, chunks[0].Context, "preamble has no enclosing heading")
	assert.Empty(t, chunks[1].Context, "top-level heading has no ancestors")
	assert.Equal(t, "Guide", chunks[2].Context)
	assert.Equal(t, "Guide", chunks[3].Context)
	assert.Empty(t, chunks[4].Context)
}

// TestChunk_FencedCodeIgnoresHeadings tests headings inside fences do not split
func TestChunk_FencedCodeIgnoresHeadings(t *testing.T) {
	doc := "# Top\n\n```\n# not a heading\n```\n\nmore text\n"
	chunks := chunkDoc(t, doc)
	require.Len(t, chunks, 1)
	assert.Equal(t, doc, chunks[0].Content)
}

// TestChunk_OversizedSectionWindows tests oversized sections split losslessly
func TestChunk_OversizedSectionWindows(t *testing.T) {
	doc := "# Big\n\n" + strings.Repeat("a long line of prose text\n", 400)
	chunks := chunkDoc(t, doc)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, domain.KindBlock, chunks[0].Kind)
	for _, ch := range chunks[1:] {
		assert.Equal(t, domain.KindWindow, ch.Kind)
	}

	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Content)
	}
	assert.Equal(t, doc, rebuilt.String())
}

func TestParseHeading(t *testing.T) {
	tests := []struct {
		line  string
		level int
		title string
		ok    bool
	}{
		{"# One", 1, "One", true},
		{"### Three words here", 3, "Three words here", true},
		{"####### too deep", 0, "", false},
		{"#nospace", 0, "", false},
		{"plain", 0, "", false},
	}

	for _, tt := range tests {
		level, title, ok := parseHeading(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.level, level, tt.line)
		assert.Equal(t, tt.title, title, tt.line)
	}
}
