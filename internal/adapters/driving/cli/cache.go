package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/ai"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
	Long: `Commands for the content-addressed embedding cache. Entries have no
expiry; they persist until a sweep removes unreferenced identities or an
explicit clear evicts everything.`,
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove cached embeddings no live chunk references",
	RunE:  runCacheSweep,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached embedding",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheSweep(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	if embeddingService == nil {
		return errors.New("no embedding provider configured")
	}

	removed, err := indexService.SweepEmbeddingCache(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	cmd.Printf("Removed %d stale cache entries.\n", removed)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	cache := store.EmbeddingCache(ai.CacheFingerprint(embeddingService))
	if err := cache.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	cmd.Println("Embedding cache cleared.")
	return nil
}
