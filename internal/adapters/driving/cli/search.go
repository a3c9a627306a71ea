package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

var (
	searchLimit       int
	searchOffset      int
	searchJSON        bool
	searchExplain     bool
	searchCollections []string
	searchStrategy    string
	searchMinScore    float64
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed collections",
	Long: `Runs a hybrid search across the indexed collections.
Keyword (BM25) and semantic (vector) rankings are fused; the workflow is
chosen per query unless --strategy forces one.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of results to skip")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchExplain, "explain", false, "show the score breakdown per result")
	searchCmd.Flags().StringSliceVarP(&searchCollections, "collection", "c", nil, "restrict to these collections (repeatable)")
	searchCmd.Flags().StringVar(&searchStrategy, "strategy", "", "force a workflow: lexical, vector or hybrid")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results scoring below this threshold")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	minScore := searchMinScore
	if minScore == 0 {
		minScore = settings.Search.MinScore
	}

	opts := domain.SearchOptions{
		Limit:       searchLimit,
		Offset:      searchOffset,
		Collections: searchCollections,
		Strategy:    domain.SearchStrategy(searchStrategy),
		MinScore:    minScore,
	}

	results, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		title := r.Document.Title
		if title == "" {
			title = r.Document.Path
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, r.Score)
		cmd.Printf("      %s", r.Document.Path)
		if r.CollectionName != "" {
			cmd.Printf("  (%s)", r.CollectionName)
		}
		cmd.Println()

		if len(r.Highlights) > 0 {
			cmd.Printf("      %s\n", r.Highlights[0])
		}
		if searchExplain {
			printBreakdown(cmd, r.Breakdown)
		}
		cmd.Println()
	}

	return nil
}

func printBreakdown(cmd *cobra.Command, b domain.ScoreBreakdown) {
	cmd.Printf("      base=%.4f importance=%.2f collection=%.2f path=%.2f terms=%.2f\n",
		b.Base, b.Importance, b.CollectionBoost, b.PathPenalty, b.TermBoost)
	if b.Fusion > 0 {
		cmd.Printf("      fusion=%.4f lexical-rank=%d vector-rank=%d\n",
			b.Fusion, b.LexicalRank, b.VectorRank)
	}
	if b.Reranked {
		cmd.Println("      reranked by LLM")
	}
}
