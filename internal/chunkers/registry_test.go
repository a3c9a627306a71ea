package chunkers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-engine/internal/chunkers/window"
)

func TestRegistry_Dispatch(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, "golang", r.ForContentType("text/x-go").Name())
	assert.Equal(t, "markdown", r.ForContentType("text/markdown").Name())
	assert.Equal(t, "markdown", r.ForContentType("text/x-markdown").Name())
}

func TestRegistry_FallbackForUnknownTypes(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, "window", r.ForContentType("text/plain").Name())
	assert.Equal(t, "window", r.ForContentType("application/octet-stream").Name())
	assert.Equal(t, "window", r.ForContentType("").Name())
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry(window.New())
	custom := window.New(window.WithTargetSize(64))
	r.Register(custom)

	// The window chunker declares no content types; nothing registered.
	assert.Empty(t, r.SupportedContentTypes())
	assert.Equal(t, "window", r.ForContentType("text/plain").Name())
}
