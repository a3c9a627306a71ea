package window

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func TestChunk_EmptyContent(t *testing.T) {
	c := New()
	chunks, err := c.Chunk(context.Background(), &domain.Document{ID: "d1"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_SmallContentSingleWindow(t *testing.T) {
	c := New()
	doc := &domain.Document{ID: "d1", Content: "short content"}

	chunks, err := c.Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, doc.Content, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartByte)
	assert.Equal(t, len(doc.Content), chunks[0].EndByte)
	assert.Equal(t, domain.KindWindow, chunks[0].Kind)
}

// TestChunk_Coverage tests the lossless coverage invariant: chunk spans
// reconstruct the input exactly with no gaps and no out-of-bounds spans.
func TestChunk_Coverage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  int
		max     int
	}{
		{"lines", strings.Repeat("line of text here\n", 500), 100, 160},
		{"no newlines", strings.Repeat("word ", 2000), 128, 256},
		{"unbreakable", strings.Repeat("x", 5000), 100, 120},
		{"multibyte", strings.Repeat("日本語のテキスト", 800), 90, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithTargetSize(tt.target), WithMaxSize(tt.max))
			doc := &domain.Document{ID: "d1", Content: tt.content}

			chunks, err := c.Chunk(context.Background(), doc)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			var rebuilt strings.Builder
			prevEnd := 0
			for i, ch := range chunks {
				assert.Equal(t, i, ch.Position)
				assert.Equal(t, prevEnd, ch.StartByte, "gap before chunk %d", i)
				assert.Greater(t, ch.EndByte, ch.StartByte)
				assert.LessOrEqual(t, ch.EndByte, len(tt.content))
				assert.True(t, utf8.ValidString(ch.Content), "chunk %d split a rune", i)
				rebuilt.WriteString(ch.Content)
				prevEnd = ch.EndByte
			}
			assert.Equal(t, tt.content, rebuilt.String())
		})
	}
}

func TestSpans_RespectsMax(t *testing.T) {
	content := strings.Repeat("a", 10_000)
	spans := Spans(content, 100, 150)

	for _, s := range spans {
		assert.LessOrEqual(t, s[1]-s[0], 150)
	}
}

func TestSpans_PrefersNewlineBreaks(t *testing.T) {
	content := strings.Repeat("0123456789\n", 40)
	spans := Spans(content, 50, 100)

	require.Greater(t, len(spans), 1)
	for _, s := range spans[:len(spans)-1] {
		assert.Equal(t, byte('\n'), content[s[1]-1], "window should end at a newline")
	}
}

func TestLineAt(t *testing.T) {
	content := "one\ntwo\nthree"
	assert.Equal(t, 1, LineAt(content, 0))
	assert.Equal(t, 2, LineAt(content, 4))
	assert.Equal(t, 3, LineAt(content, len(content)-1))
}
