package services

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// Ensure StrategyService implements the interface.
var _ driving.StrategyService = (*StrategyService)(nil)

// DecisionTTL is how long a cached strategy decision stays valid.
const DecisionTTL = time.Hour

// DecisionCacheSize bounds the decision cache; older entries are
// evicted when full, whichever of expiry or capacity hits first.
const DecisionCacheSize = 512

// DefaultClassifyTimeout bounds the optional LLM classification call.
const DefaultClassifyTimeout = 3 * time.Second

// acronymMaxLen is the longest token still treated as an acronym.
const acronymMaxLen = 5

// interrogatives mark natural-language phrasing.
var interrogatives = map[string]struct{}{
	"who": {}, "what": {}, "when": {}, "where": {}, "why": {},
	"how": {}, "which": {}, "does": {}, "do": {}, "is": {}, "are": {},
	"can": {}, "should": {},
}

// stopWords are common filler words; two or more suggest prose.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "to": {}, "with": {}, "and": {}, "or": {}, "at": {},
	"by": {}, "from": {}, "about": {}, "into": {}, "that": {}, "this": {},
}

// StrategyService classifies queries and selects the search workflow.
// The deterministic heuristic is always available; a configured LLM
// service may override it, but any failure, malformed output or timeout
// resolves to the heuristic - never to a user-facing error.
type StrategyService struct {
	llm             driven.LLMService // optional
	vectorAvailable bool
	timeout         time.Duration
	cache           *expirable.LRU[string, domain.StrategyDecision]
}

// StrategyOption configures the strategy service.
type StrategyOption func(*StrategyService)

// WithClassifyTimeout sets the LLM classification timeout.
func WithClassifyTimeout(d time.Duration) StrategyOption {
	return func(s *StrategyService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewStrategyService creates a new strategy service.
// The llm parameter is optional (can be nil). vectorAvailable reports
// whether the vector workflow can run at all; without it every decision
// resolves to lexical.
func NewStrategyService(llm driven.LLMService, vectorAvailable bool, opts ...StrategyOption) *StrategyService {
	s := &StrategyService{
		llm:             llm,
		vectorAvailable: vectorAvailable,
		timeout:         DefaultClassifyTimeout,
		cache:           expirable.NewLRU[string, domain.StrategyDecision](DecisionCacheSize, nil, DecisionTTL),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Decide classifies the query and returns the chosen workflow.
// Decisions for identical query text are cached for DecisionTTL; the
// cache is advisory - a miss costs latency, never correctness.
func (s *StrategyService) Decide(ctx context.Context, query string) domain.StrategyDecision {
	query = strings.TrimSpace(query)

	if cached, ok := s.cache.Get(query); ok {
		logger.Debug("Strategy cache hit: %q -> %s", query, cached.Strategy)
		return cached
	}

	decision := s.heuristic(query)

	if s.llm != nil {
		if override, ok := s.classifyLLM(ctx, query); ok {
			decision = domain.StrategyDecision{
				Query:     query,
				Strategy:  s.clamp(override),
				Signals:   []string{"llm"},
				Source:    "llm",
				DecidedAt: time.Now(),
			}
		}
	}

	logger.Info("Strategy decision: %q -> %s (%s)", query, decision.Strategy, decision.Source)
	s.cache.Add(query, decision)
	return decision
}

// heuristic is the deterministic fallback classifier. It requires no
// external dependency and always succeeds.
func (s *StrategyService) heuristic(query string) domain.StrategyDecision {
	var signals []string
	tokens := strings.Fields(query)

	specific := false
	natural := false
	stopCount := 0

	for _, tok := range tokens {
		// Trailing sentence punctuation is not a scoping separator.
		tok = strings.TrimRight(tok, "?!.,:;")
		if isAcronym(tok) {
			specific = true
			signals = append(signals, "acronym")
			continue
		}
		if hasScopingPunctuation(tok) {
			specific = true
			signals = append(signals, "symbol")
			continue
		}

		lower := strings.ToLower(tok)
		if _, ok := interrogatives[lower]; ok {
			natural = true
			signals = append(signals, "question")
		}
		if _, ok := stopWords[lower]; ok {
			stopCount++
		}
	}

	if stopCount >= 2 {
		natural = true
		signals = append(signals, "stopwords")
	}

	strategy := domain.StrategyHybrid
	switch {
	case specific && !natural:
		strategy = domain.StrategyLexical
	case natural:
		strategy = domain.StrategyHybrid
	}

	return domain.StrategyDecision{
		Query:     query,
		Strategy:  s.clamp(strategy),
		Signals:   signals,
		Source:    "heuristic",
		DecidedAt: time.Now(),
	}
}

// classifyLLM asks the optional LLM to classify, bounded by a timeout.
// Returns ok=false on any failure: the caller proceeds with the heuristic.
func (s *StrategyService) classifyLLM(ctx context.Context, query string) (domain.SearchStrategy, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	strategy, err := s.llm.Classify(ctx, query)
	if err != nil {
		logger.Debug("LLM classify failed: %v (using heuristic)", err)
		return "", false
	}
	if !strategy.Valid() {
		logger.Debug("LLM classify returned %q (using heuristic)", strategy)
		return "", false
	}

	return strategy, true
}

// clamp degrades vector-dependent strategies when embeddings are absent.
func (s *StrategyService) clamp(strategy domain.SearchStrategy) domain.SearchStrategy {
	if !s.vectorAvailable && strategy != domain.StrategyLexical {
		return domain.StrategyLexical
	}
	return strategy
}

// isAcronym reports whether tok is an all-uppercase token of bounded length.
func isAcronym(tok string) bool {
	if len(tok) == 0 || len(tok) > acronymMaxLen {
		return false
	}
	hasLetter := false
	for _, r := range tok {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// hasScopingPunctuation reports whether tok contains structural
// separators such as scoping or path punctuation.
func hasScopingPunctuation(tok string) bool {
	return strings.Contains(tok, "::") ||
		strings.Contains(tok, "->") ||
		strings.ContainsAny(tok, "._/")
}
