package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func TestLoadSettings_Defaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	settings := LoadSettings(store)

	assert.Equal(t, domain.DefaultAppSettings().Index, settings.Index)
	assert.False(t, settings.Search.Rerank)
	assert.False(t, settings.Embedding.IsConfigured())
	assert.False(t, settings.LLM.IsConfigured())
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	want := domain.AppSettings{
		Search: domain.SearchSettings{Rerank: true, MinScore: 12.5},
		Index:  domain.IndexSettings{ContextBound: 128, EmbedConcurrency: 8},
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "gpt-4o-mini",
			APIKey:   "sk-test",
		},
	}
	require.NoError(t, SaveSettings(store, want))

	// Reload from disk through a fresh store.
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	got := LoadSettings(reloaded)
	assert.Equal(t, want, got)
}
