// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// LLMService provides language model operations for query understanding.
// This is an optional service - when nil, the orchestrator's deterministic
// heuristic always decides and reranking is skipped.
//
// Every method must honour its context deadline. Callers treat any error,
// malformed output or timeout as "service absent" and proceed with the
// deterministic path; an LLM failure is never surfaced as a user-facing
// error for these operations.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Classify selects a search workflow for the query.
	Classify(ctx context.Context, query string) (domain.SearchStrategy, error)

	// Rerank reorders ranked results by relevance to the query and
	// returns adjusted scores. The adjusted scores replace the fused
	// scores; boosts are not reapplied afterwards.
	Rerank(ctx context.Context, query string, results []domain.SearchResult) ([]domain.SearchResult, error)

	// RewriteQuery expands or rewrites a search query for better recall.
	// This can add synonyms, fix typos, or expand abbreviations.
	RewriteQuery(ctx context.Context, query string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
