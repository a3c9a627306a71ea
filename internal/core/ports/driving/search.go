package driving

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// SearchService provides hybrid search capabilities to external actors.
type SearchService interface {
	// Search runs the selected workflow for the query and returns the
	// ordered result list with per-result score breakdowns. Malformed
	// options (e.g., an unknown collection filter) are rejected before
	// any query primitive runs.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// StrategyService selects the workflow for a query.
type StrategyService interface {
	// Decide classifies the query and returns the chosen workflow.
	// Always succeeds: when the LLM collaborator is absent or fails,
	// the deterministic heuristic decides.
	Decide(ctx context.Context, query string) domain.StrategyDecision
}
