package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// RRFOffset is the fixed rank offset for Reciprocal Rank Fusion.
// It prevents the top ranks of one signal from dominating the fusion.
const RRFOffset = 60

// DefaultRerankTimeout bounds the optional reranking call.
const DefaultRerankTimeout = 5 * time.Second

// DefaultRewriteTimeout bounds the optional query-rewrite call.
const DefaultRewriteTimeout = 3 * time.Second

// pathBoost multiplies the score when a query term occurs in the
// document's path or filename.
const pathBoost = 10.0

// titleBoost multiplies the score when a query term occurs in the title
// but not the path.
const titleBoost = 4.0

// minTermLen discards shorter query terms during boosting, preserving
// two-letter acronyms.
const minTermLen = 2

// SearchService is the hybrid ranking engine. It executes the query
// primitives selected by the strategy orchestrator, applies boosting and
// normalization, fuses rankings, and optionally invokes a reranking
// collaborator.
//
// Reranking limitation, by contract: a reranking collaborator's adjusted
// scores replace the fused scores and boosts are NOT reapplied afterwards,
// so a collaborator that is not signal-aware can erase the effect of
// title/filename boosting. This is an accepted trade-off of delegating
// final ordering, not a defect.
type SearchService struct {
	docStore      driven.DocumentStore
	collections   driven.CollectionStore
	searchIndex   driven.SearchEngine
	vectorIndex   driven.VectorIndex
	embedder      driven.EmbeddingService
	llm           driven.LLMService
	strategy      driving.StrategyService
	rerankTimeout time.Duration
}

// NewSearchService creates a new search service.
// The embedder and llm parameters are optional (can be nil).
func NewSearchService(
	docStore driven.DocumentStore,
	collections driven.CollectionStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	strategy driving.StrategyService,
) *SearchService {
	return &SearchService{
		docStore:      docStore,
		collections:   collections,
		searchIndex:   searchIndex,
		vectorIndex:   vectorIndex,
		embedder:      embedder,
		llm:           llm,
		strategy:      strategy,
		rerankTimeout: DefaultRerankTimeout,
	}
}

// SetRerankTimeout overrides the reranking call timeout.
func (s *SearchService) SetRerankTimeout(d time.Duration) {
	if d > 0 {
		s.rerankTimeout = d
	}
}

// Search runs the selected workflow and returns the ordered result list.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	// Reject malformed options before any query primitive runs.
	allowed, err := s.resolveCollectionFilter(ctx, opts.Collections)
	if err != nil {
		return nil, err
	}
	if opts.Strategy != "" && !opts.Strategy.Valid() {
		return nil, fmt.Errorf("%w: strategy %q", domain.ErrInvalidInput, opts.Strategy)
	}
	if opts.MinScore < 0 {
		return nil, fmt.Errorf("%w: negative minimum score", domain.ErrInvalidInput)
	}
	if opts.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", domain.ErrInvalidInput)
	}

	// Request more results internally to account for filtering.
	internalLimit := limit * 2
	if len(opts.Collections) > 0 {
		internalLimit = limit * 3
	}

	strategy := s.effectiveStrategy(ctx, query, opts)
	logger.Info("Effective strategy: %s", strategy)

	lexical, vector, err := s.runPrimitives(ctx, query, strategy, internalLimit, allowed)
	if err != nil {
		return nil, err
	}

	boosted := strategy != domain.StrategyLexical
	terms := queryTerms(query)

	lexRanked := s.scoreList(lexical, terms, boosted)
	vecRanked := s.scoreList(vector, terms, boosted)

	var results []domain.SearchResult
	switch {
	case len(lexRanked) > 0 && len(vecRanked) > 0:
		results = fuseRankings(lexRanked, vecRanked)
	case len(vecRanked) > 0:
		results = vecRanked
	default:
		results = lexRanked
	}

	normalizeScores(results)

	if s.llm != nil && len(results) > 0 {
		results = s.rerank(ctx, query, results)
	}

	results = filterMinScore(results, opts.MinScore)
	results = applyPagination(results, opts.Offset, limit)

	for i := range results {
		results[i].Highlights = generateHighlights(results[i].Chunk.Content, query)
	}

	logger.Info("Final results: %d", len(results))
	return results, nil
}

// resolveCollectionFilter maps collection names to IDs, rejecting
// unknown names synchronously.
func (s *SearchService) resolveCollectionFilter(ctx context.Context, names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if s.collections == nil {
		return nil, domain.ErrUnknownCollection
	}

	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		col, err := s.collections.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, name)
			}
			return nil, fmt.Errorf("resolve collection %q: %w", name, err)
		}
		allowed[col.ID] = true
	}

	return allowed, nil
}

// effectiveStrategy applies the forced override or asks the orchestrator,
// then degrades to what the available services can actually run.
func (s *SearchService) effectiveStrategy(ctx context.Context, query string, opts domain.SearchOptions) domain.SearchStrategy {
	strategy := opts.Strategy
	if strategy == "" {
		if s.strategy != nil {
			strategy = s.strategy.Decide(ctx, query).Strategy
		} else {
			strategy = domain.StrategyHybrid
		}
	}

	canVector := s.vectorIndex != nil && s.embedder != nil
	if !canVector && strategy != domain.StrategyLexical {
		logger.Debug("Vector workflow unavailable, degrading %s to lexical", strategy)
		return domain.StrategyLexical
	}
	if s.searchIndex == nil && strategy == domain.StrategyHybrid {
		return domain.StrategyVector
	}

	return strategy
}

// runPrimitives executes the selected query primitives. For the hybrid
// workflow the two sub-queries run in parallel; the fusion step later is
// the synchronization barrier.
func (s *SearchService) runPrimitives(
	ctx context.Context,
	query string,
	strategy domain.SearchStrategy,
	limit int,
	allowed map[string]bool,
) (lexical, vector []domain.SearchResult, err error) {
	switch strategy {
	case domain.StrategyLexical:
		lexical, err = s.lexicalSearch(ctx, s.expandQuery(ctx, query), limit, allowed)
		return lexical, nil, err

	case domain.StrategyVector:
		vector, err = s.vectorSearch(ctx, query, limit, allowed)
		return nil, vector, err

	default:
		// The rewritten query feeds the lexical primitive only; the
		// vector primitive embeds the user's own words.
		lexQuery := s.expandQuery(ctx, query)

		var lexErr, vecErr error
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			lexical, lexErr = s.lexicalSearch(ctx, lexQuery, limit, allowed)
		}()
		go func() {
			defer wg.Done()
			vector, vecErr = s.vectorSearch(ctx, query, limit, allowed)
		}()

		wg.Wait()

		// Degrade if one signal fails; fail only when both do.
		if lexErr != nil && vecErr != nil {
			return nil, nil, fmt.Errorf("hybrid search: lexical=%w, vector=%w", lexErr, vecErr)
		}
		if lexErr != nil {
			logger.Warn("Hybrid search: lexical failed, using vector only: %v", lexErr)
			lexical = nil
		}
		if vecErr != nil {
			logger.Warn("Hybrid search: vector failed, using lexical only: %v", vecErr)
			vector = nil
		}
		return lexical, vector, nil
	}
}

// expandQuery asks the model to rewrite the query into better lexical
// search terms. Any failure or empty rewrite degrades to the original
// query; rewriting is a quality aid, never a correctness dependency.
func (s *SearchService) expandQuery(ctx context.Context, query string) string {
	if s.llm == nil {
		return query
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultRewriteTimeout)
	defer cancel()

	expanded, err := s.llm.RewriteQuery(ctx, query)
	if err != nil {
		logger.Warn("Query rewrite failed: %v (using original query)", err)
		return query
	}
	expanded = strings.TrimSpace(expanded)
	if expanded == "" {
		return query
	}
	logger.Info("Query rewrite: %q", expanded)
	return expanded
}

// lexicalSearch runs the term-frequency primitive and hydrates results.
func (s *SearchService) lexicalSearch(ctx context.Context, query string, limit int, allowed map[string]bool) ([]domain.SearchResult, error) {
	if s.searchIndex == nil {
		return nil, domain.ErrSearchUnavailable
	}

	hits, err := s.searchIndex.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	logger.Debug("Lexical search: %d hits", len(hits))

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		r, ok, err := s.hydrate(ctx, hit.ChunkID, hit.Score, allowed)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, r)
		}
	}
	return results, nil
}

// vectorSearch embeds the query and runs the similarity primitive.
func (s *SearchService) vectorSearch(ctx context.Context, query string, limit int, allowed map[string]bool) ([]domain.SearchResult, error) {
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		r, ok, err := s.hydrate(ctx, hit.ChunkID, hit.Similarity, allowed)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, r)
		}
	}
	return results, nil
}

// hydrate loads the chunk and document for a hit. Deleted entities and
// filtered collections are skipped, not errors.
func (s *SearchService) hydrate(ctx context.Context, chunkID string, base float64, allowed map[string]bool) (domain.SearchResult, bool, error) {
	chunk, err := s.docStore.GetChunk(ctx, chunkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.SearchResult{}, false, nil
		}
		return domain.SearchResult{}, false, fmt.Errorf("get chunk %s: %w", chunkID, err)
	}

	doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.SearchResult{}, false, nil
		}
		return domain.SearchResult{}, false, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
	}

	if allowed != nil && !allowed[doc.CollectionID] {
		return domain.SearchResult{}, false, nil
	}

	result := domain.SearchResult{
		Document: *doc,
		Chunk:    *chunk,
		Breakdown: domain.ScoreBreakdown{
			Base:            base,
			Importance:      1.0,
			CollectionBoost: 1.0,
			PathPenalty:     1.0,
			TermBoost:       1.0,
		},
	}

	if s.collections != nil {
		if col, err := s.collections.Get(ctx, doc.CollectionID); err == nil {
			result.CollectionName = col.Name
			result.Breakdown.CollectionBoost = col.EffectiveBoost()
		}
	}

	return result, true, nil
}

// scoreList applies boost multipliers and orders a single signal's results.
// When boosted is false (lexical-only workflow) the raw signal score alone
// decides the order.
func (s *SearchService) scoreList(results []domain.SearchResult, terms []string, boosted bool) []domain.SearchResult {
	if len(results) == 0 {
		return results
	}

	for i := range results {
		b := &results[i].Breakdown
		if boosted {
			b.Importance = results[i].Document.EffectiveImportance()
			b.PathPenalty = results[i].Document.Class.Penalty()
			b.TermBoost = termBoost(terms, &results[i].Document)
		} else {
			b.Importance = 1.0
			b.CollectionBoost = 1.0
			b.PathPenalty = 1.0
			b.TermBoost = 1.0
		}
		results[i].Score = b.Weighted()
	}

	sortResults(results)
	return results
}

// termBoost compounds per-term multipliers: x10 when the term occurs in
// the document's path or filename, else x4 when it occurs in the title.
// Boosts across terms compound multiplicatively.
func termBoost(terms []string, doc *domain.Document) float64 {
	boost := 1.0
	path := strings.ToLower(doc.Path)
	title := strings.ToLower(doc.Title)

	for _, term := range terms {
		switch {
		case strings.Contains(path, term):
			boost *= pathBoost
		case title != "" && strings.Contains(title, term):
			boost *= titleBoost
		}
	}

	return boost
}

// queryTerms tokenizes on whitespace and sentence punctuation, discarding
// terms shorter than minTermLen to preserve acronyms.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(".,;:!?", r)
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minTermLen {
			terms = append(terms, f)
		}
	}
	return terms
}

// fuseRankings merges the two ordered lists with Reciprocal Rank Fusion:
// each result's fused score is the sum over contributing rankings of
// 1/(RRFOffset + position). Ties break by the higher raw similarity
// score, then by chunk identifier, for full determinism.
func fuseRankings(lexical, vector []domain.SearchResult) []domain.SearchResult {
	merged := make(map[string]*domain.SearchResult)

	for rank := range lexical {
		r := lexical[rank]
		r.Breakdown.LexicalRank = rank + 1
		r.Breakdown.Fusion = 1.0 / float64(RRFOffset+rank+1)
		merged[r.Chunk.ID] = &r
	}

	for rank := range vector {
		contribution := 1.0 / float64(RRFOffset+rank+1)
		if existing, ok := merged[vector[rank].Chunk.ID]; ok {
			// Keep the vector side's breakdown: it carries the boosts.
			r := vector[rank]
			r.Breakdown.LexicalRank = existing.Breakdown.LexicalRank
			r.Breakdown.VectorRank = rank + 1
			r.Breakdown.Fusion = existing.Breakdown.Fusion + contribution
			if existing.Score > r.Score {
				r.Score = existing.Score
			}
			merged[r.Chunk.ID] = &r
			continue
		}
		r := vector[rank]
		r.Breakdown.VectorRank = rank + 1
		r.Breakdown.Fusion = contribution
		merged[r.Chunk.ID] = &r
	}

	results := make([]domain.SearchResult, 0, len(merged))
	for _, r := range merged {
		r.Score = r.Breakdown.Fusion
		results = append(results, *r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Breakdown.Base != results[j].Breakdown.Base {
			return results[i].Breakdown.Base > results[j].Breakdown.Base
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	return results
}

// sortResults orders by score descending, breaking ties by raw score then
// chunk identifier so repeated calls produce identical output.
func sortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Breakdown.Base != results[j].Breakdown.Base {
			return results[i].Breakdown.Base > results[j].Breakdown.Base
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

// normalizeScores scales every score so the top result is exactly 100.
// Normalization is skipped when the top score is zero or absent - never
// divide by zero.
func normalizeScores(results []domain.SearchResult) {
	if len(results) == 0 {
		return
	}
	top := results[0].Score
	if top <= 0 {
		logger.Debug("Top score %.4f, skipping normalization", top)
		return
	}
	for i := range results {
		results[i].Score = results[i].Score / top * 100
	}
}

// rerank hands the ranked list to the external collaborator, bounded by a
// timeout. Any failure leaves the pre-call ranking intact.
func (s *SearchService) rerank(ctx context.Context, query string, results []domain.SearchResult) []domain.SearchResult {
	ctx, cancel := context.WithTimeout(ctx, s.rerankTimeout)
	defer cancel()

	reranked, err := s.llm.Rerank(ctx, query, results)
	if err != nil {
		logger.Debug("Rerank failed: %v (keeping fused ranking)", err)
		return results
	}
	if len(reranked) == 0 {
		return results
	}

	for i := range reranked {
		reranked[i].Breakdown.Reranked = true
	}
	return reranked
}

// filterMinScore drops results below the threshold.
func filterMinScore(results []domain.SearchResult, minScore float64) []domain.SearchResult {
	if minScore <= 0 {
		return results
	}
	filtered := results[:0]
	for _, r := range results {
		if r.Score >= minScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// applyPagination applies offset and limit to results.
func applyPagination(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset >= len(results) {
		return []domain.SearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

// generateHighlights creates text snippets containing matched terms.
func generateHighlights(content, query string) []string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				if len(sentence) > 200 {
					cut := 200
					for cut > 0 && !utf8.RuneStart(sentence[cut]) {
						cut--
					}
					sentence = sentence[:cut] + "..."
				}
				highlights = append(highlights, sentence)
				break
			}
		}
		if len(highlights) >= 3 {
			break
		}
	}

	return highlights
}

// splitSentences splits content at common sentence terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
