package file

import (
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// Configuration keys, dot-notation matching the TOML table layout.
const (
	keySearchRerank      = "search.rerank"
	keySearchMinScore    = "search.min_score"
	keyIndexContextBound = "index.context_bound"
	keyIndexConcurrency  = "index.embed_concurrency"
	keyEmbeddingProvider = "embedding.provider"
	keyEmbeddingModel    = "embedding.model"
	keyEmbeddingBaseURL  = "embedding.base_url"
	keyEmbeddingAPIKey   = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
)

// LoadSettings builds application settings from a config store, filling
// gaps with defaults.
func LoadSettings(store driven.ConfigStore) domain.AppSettings {
	settings := domain.DefaultAppSettings()

	if _, ok := store.Get(keySearchRerank); ok {
		settings.Search.Rerank = store.GetBool(keySearchRerank)
	}
	if _, ok := store.Get(keySearchMinScore); ok {
		settings.Search.MinScore = store.GetFloat(keySearchMinScore)
	}
	if v := store.GetInt(keyIndexContextBound); v > 0 {
		settings.Index.ContextBound = v
	}
	if v := store.GetInt(keyIndexConcurrency); v > 0 {
		settings.Index.EmbedConcurrency = v
	}

	settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProvider(store.GetString(keyEmbeddingProvider)),
		Model:    store.GetString(keyEmbeddingModel),
		BaseURL:  store.GetString(keyEmbeddingBaseURL),
		APIKey:   store.GetString(keyEmbeddingAPIKey),
	}
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProvider(store.GetString(keyLLMProvider)),
		Model:    store.GetString(keyLLMModel),
		BaseURL:  store.GetString(keyLLMBaseURL),
		APIKey:   store.GetString(keyLLMAPIKey),
	}

	return settings
}

// SaveSettings writes application settings to a config store.
func SaveSettings(store driven.ConfigStore, settings domain.AppSettings) error {
	pairs := []struct {
		key   string
		value any
	}{
		{keySearchRerank, settings.Search.Rerank},
		{keySearchMinScore, settings.Search.MinScore},
		{keyIndexContextBound, settings.Index.ContextBound},
		{keyIndexConcurrency, settings.Index.EmbedConcurrency},
		{keyEmbeddingProvider, settings.Embedding.Provider.String()},
		{keyEmbeddingModel, settings.Embedding.Model},
		{keyEmbeddingBaseURL, settings.Embedding.BaseURL},
		{keyEmbeddingAPIKey, settings.Embedding.APIKey},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMAPIKey, settings.LLM.APIKey},
	}

	for _, p := range pairs {
		if err := store.Set(p.key, p.value); err != nil {
			return err
		}
	}
	return store.Save()
}
