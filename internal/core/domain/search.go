package domain

import "time"

// SearchStrategy identifies which query workflow to run.
type SearchStrategy string

const (
	// StrategyLexical runs only the term-frequency query primitive.
	StrategyLexical SearchStrategy = "lexical"

	// StrategyVector runs only the vector-similarity query primitive.
	StrategyVector SearchStrategy = "vector"

	// StrategyHybrid runs both primitives and fuses the rankings.
	StrategyHybrid SearchStrategy = "hybrid"
)

// Valid reports whether the strategy is a known workflow.
func (s SearchStrategy) Valid() bool {
	switch s {
	case StrategyLexical, StrategyVector, StrategyHybrid:
		return true
	default:
		return false
	}
}

// StrategyDecision records the workflow chosen for a query.
// Decisions are transient or cached with a short TTL; they are never
// persisted.
type StrategyDecision struct {
	// Query is the raw query text the decision applies to.
	Query string

	// Strategy is the selected workflow.
	Strategy SearchStrategy

	// Signals lists the classification signals that contributed
	// (e.g., "acronym", "symbol", "question", "stopwords").
	Signals []string

	// Source is "heuristic" or "llm".
	Source string

	// DecidedAt is when the decision was made.
	DecidedAt time.Time
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results. Defaults to 20.
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// Collections filters to the named collections. Unknown names
	// are rejected before any query primitive runs.
	Collections []string

	// Strategy forces a workflow, bypassing the orchestrator.
	// Empty means decide automatically.
	Strategy SearchStrategy

	// MinScore drops results scoring below the threshold after
	// normalization. Zero means no threshold.
	MinScore float64
}

// ScoreBreakdown explains how a result's final score was produced.
// Every multiplier is recorded so the final score can be reconstructed.
type ScoreBreakdown struct {
	// Base is the raw signal score: cosine similarity for vector
	// results, BM25 weight for lexical results.
	Base float64

	// Importance is the document importance multiplier.
	Importance float64

	// CollectionBoost is the owning collection's boost multiplier.
	CollectionBoost float64

	// PathPenalty is the path classification multiplier.
	PathPenalty float64

	// TermBoost is the compounded title/filename boost across
	// query terms.
	TermBoost float64

	// LexicalRank is the 1-based rank in the lexical result list,
	// 0 when the result did not appear there.
	LexicalRank int

	// VectorRank is the 1-based rank in the vector result list,
	// 0 when the result did not appear there.
	VectorRank int

	// Fusion is the reciprocal-rank-fusion contribution sum, set
	// only for hybrid queries.
	Fusion float64

	// Reranked is true when an external reranker replaced the
	// fused score.
	Reranked bool
}

// Weighted returns the boosted score before fusion and normalization:
// base similarity times every multiplier.
func (b ScoreBreakdown) Weighted() float64 {
	return b.Base * b.Importance * b.CollectionBoost * b.PathPenalty * b.TermBoost
}

// SearchResult represents a single search hit. Transient, never persisted.
type SearchResult struct {
	// Document is the matched document.
	Document Document

	// Chunk is the specific chunk that matched.
	Chunk Chunk

	// CollectionName is the owning collection's name.
	CollectionName string

	// Score is the final fused and normalized score. The top result
	// of a normalized list scores exactly 100.
	Score float64

	// Breakdown explains the score.
	Breakdown ScoreBreakdown

	// Highlights contains snippets with matched terms.
	Highlights []string
}
