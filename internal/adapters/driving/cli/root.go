// Package cli provides the command-line interface for the search engine.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-engine/internal/chunkers"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/core/services"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

var (
	version = "dev"

	verbose   bool
	configDir string
	dataDir   string
)

// Wired services, populated by initServices before a command runs.
var (
	configStore       *file.ConfigStore
	settings          domain.AppSettings
	store             *sqlite.Store
	embeddingService  driven.EmbeddingService
	llmService        driven.LLMService
	searchService     driving.SearchService
	indexService      driving.IndexService
	collectionService driving.CollectionService
)

var rootCmd = &cobra.Command{
	Use:   "sercha-engine",
	Short: "Local-first hybrid search over your documents",
	Long: `A local-first search engine combining keyword (BM25) and semantic
(vector) retrieval over explicitly registered collections. Embeddings and
LLM assistance are optional; without them every query runs lexically.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha-engine)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.sercha-engine/data)")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// initServices wires the full service graph. AI collaborators that are
// configured but unreachable degrade to warnings, never startup failures.
func initServices() error {
	if store != nil {
		return nil
	}

	var err error
	configStore, err = file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settings = file.LoadSettings(configStore)

	store, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	embeddingService, err = ai.CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Warn("embedding disabled: %v", err)
		embeddingService = nil
	}

	llmService, err = ai.CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		logger.Warn("LLM assistance disabled: %v", err)
		llmService = nil
	}

	var (
		vectorIndex driven.VectorIndex
		cache       driven.EmbeddingCache
	)
	if embeddingService != nil {
		vectorIndex = store.VectorIndex()
		cache = store.EmbeddingCache(ai.CacheFingerprint(embeddingService))
	}

	strategy := services.NewStrategyService(llmService, vectorIndex != nil)

	// Reranking is opt-in; without it the LLM only classifies queries.
	rerankLLM := llmService
	if !settings.Search.Rerank {
		rerankLLM = nil
	}

	searchService = services.NewSearchService(
		store.DocumentStore(),
		store.CollectionStore(),
		store.SearchEngine(),
		vectorIndex,
		embeddingService,
		rerankLLM,
		strategy,
	)

	indexService = services.NewIndexService(
		store.DocumentStore(),
		store.CollectionStore(),
		store.SearchEngine(),
		vectorIndex,
		embeddingService,
		cache,
		chunkers.NewDefaultRegistry(),
		services.WithContextBound(settings.Index.ContextBound),
		services.WithEmbedConcurrency(settings.Index.EmbedConcurrency),
	)

	collectionService = services.NewCollectionService(
		store.CollectionStore(),
		store.DocumentStore(),
	)

	return nil
}

func closeServices() {
	if embeddingService != nil {
		embeddingService.Close()
	}
	if llmService != nil {
		llmService.Close()
	}
	if store != nil {
		store.Close()
	}
}

func requireServices() error {
	if store == nil {
		return errors.New("services not initialised")
	}
	return nil
}
