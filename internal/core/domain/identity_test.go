package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestComputeIdentity_Stable tests that identical input yields identical identities
func TestComputeIdentity_Stable(t *testing.T) {
	a := ComputeIdentity(KindFunction, "func Add(a, b int) int { return a + b }", "// Add sums two ints", 0)
	b := ComputeIdentity(KindFunction, "func Add(a, b int) int { return a + b }", "// Add sums two ints", 0)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha256
}

// TestComputeIdentity_WhitespaceInsensitive tests stability across re-formatting
func TestComputeIdentity_WhitespaceInsensitive(t *testing.T) {
	a := ComputeIdentity(KindFunction, "func Add(a, b int) int {\n\treturn a + b\n}", "", 0)
	b := ComputeIdentity(KindFunction, "func Add(a, b int) int { return a + b }", "", 0)
	c := ComputeIdentity(KindFunction, "  func   Add(a, b int) int   {  return a + b }  ", "", 0)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

// TestComputeIdentity_ContentSensitive tests that meaningful edits change the identity
func TestComputeIdentity_ContentSensitive(t *testing.T) {
	a := ComputeIdentity(KindFunction, "func Add(a, b int) int { return a + b }", "", 0)
	b := ComputeIdentity(KindFunction, "func Add(a, b int) int { return a - b }", "", 0)

	assert.NotEqual(t, a, b)
}

// TestComputeIdentity_KindSensitive tests that the structural kind participates
func TestComputeIdentity_KindSensitive(t *testing.T) {
	a := ComputeIdentity(KindFunction, "same text", "", 0)
	b := ComputeIdentity(KindBlock, "same text", "", 0)

	assert.NotEqual(t, a, b)
}

// TestComputeIdentity_ContextSensitive tests that surrounding context participates
func TestComputeIdentity_ContextSensitive(t *testing.T) {
	a := ComputeIdentity(KindMethod, "func (s *Store) Get() {}", "type Store struct", 0)
	b := ComputeIdentity(KindMethod, "func (s *Store) Get() {}", "type Cache struct", 0)

	assert.NotEqual(t, a, b)
}

// TestComputeIdentity_ContextBound tests that context beyond the bound is ignored
func TestComputeIdentity_ContextBound(t *testing.T) {
	base := strings.Repeat("x", 64)
	a := ComputeIdentity(KindFunction, "body", base+"tail-one", 64)
	b := ComputeIdentity(KindFunction, "body", base+"tail-two", 64)

	// Both contexts are truncated to the same 64-byte prefix.
	assert.Equal(t, a, b)

	// Within the bound, context still matters.
	c := ComputeIdentity(KindFunction, "body", "short-one", 64)
	d := ComputeIdentity(KindFunction, "body", "short-two", 64)
	assert.NotEqual(t, c, d)
}

// TestComputeIdentity_BoundRespectRunes tests runes are never split at the bound
func TestComputeIdentity_BoundRespectRunes(t *testing.T) {
	// 3-byte runes; a 4-byte bound must cut back to the rune start.
	ctx := "日本語"
	assert.NotPanics(t, func() {
		ComputeIdentity(KindWindow, "body", ctx, 4)
	})
	a := ComputeIdentity(KindWindow, "body", ctx, 4)
	b := ComputeIdentity(KindWindow, "body", "日", 4)
	assert.Equal(t, a, b)
}

// TestNormalizeText tests whitespace normalization
func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"tabs and newlines", "hello\t\nworld", "hello world"},
		{"leading and trailing", "  hello  ", "hello"},
		{"runs collapse", "a   b \n\n c", "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.input))
		})
	}
}
