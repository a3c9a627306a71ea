package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultContextBound is the default byte limit on the surrounding
// context included in a content identity. The bound is configurable
// because the right amount of enclosing-signature context is a tuning
// parameter, not a universal constant.
const DefaultContextBound = 512

// ComputeIdentity returns the content identity for a chunk: a SHA-256
// hash over the structural kind tag, the whitespace-normalized chunk
// text and up to contextBound bytes of surrounding context.
//
// The identity is stable across whitespace-insignificant re-formatting
// and changes whenever semantically meaningful text changes. Ordinal
// position never participates; two chunks with equal identity are
// interchangeable for embedding purposes.
func ComputeIdentity(kind ChunkKind, content, context string, contextBound int) string {
	if contextBound <= 0 {
		contextBound = DefaultContextBound
	}

	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(NormalizeText(content)))
	h.Write([]byte{0})
	h.Write([]byte(boundContext(NormalizeText(context), contextBound)))

	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeText collapses every run of whitespace to a single space and
// trims the ends, so re-formatting that only moves whitespace does not
// change a chunk's identity.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}

	return b.String()
}

// boundContext truncates s to at most bound bytes without splitting a
// multi-byte rune.
func boundContext(s string, bound int) string {
	if len(s) <= bound {
		return s
	}
	cut := bound
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
