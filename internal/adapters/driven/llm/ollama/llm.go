// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// rerankBatchLimit caps how many results are sent for reranking.
const rerankBatchLimit = 20

// snippetLimit caps the content excerpt per result in the rerank prompt.
const snippetLimit = 300

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using Ollama.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// generate produces a text completion from a prompt.
func (s *LLMService) generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	reqBody := generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: false,
		Options: &options{
			NumPredict:  maxTokens,
			Temperature: temperature,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Response, nil
}

const classifyPrompt = `Classify this search query into exactly one search workflow.

lexical: identifiers, acronyms, symbol names, file paths, exact phrases
vector: conceptual descriptions with no exact terms to match
hybrid: natural-language questions that also contain concrete terms

Answer with a single word: lexical, vector or hybrid.

Query: %s
Answer:`

// Classify selects a search workflow for the query.
func (s *LLMService) Classify(ctx context.Context, query string) (domain.SearchStrategy, error) {
	result, err := s.generate(ctx, fmt.Sprintf(classifyPrompt, query), 10, 0)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}

	strategy := domain.SearchStrategy(strings.ToLower(strings.TrimSpace(result)))
	if !strategy.Valid() {
		return "", fmt.Errorf("classify: unrecognised answer %q", result)
	}
	return strategy, nil
}

const rerankPrompt = `Score each search result for relevance to the query on a 0-100 scale.
Return ONLY a JSON array, most relevant first, like:
[{"index": 2, "score": 95}, {"index": 1, "score": 40}]

Query: %s

Results:
%s`

// rerankEntry is one element of the model's rerank answer.
type rerankEntry struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Rerank reorders ranked results by relevance to the query. The adjusted
// scores replace the callers' scores wholesale.
func (s *LLMService) Rerank(ctx context.Context, query string, results []domain.SearchResult) ([]domain.SearchResult, error) {
	if len(results) == 0 {
		return results, nil
	}

	batch := results
	if len(batch) > rerankBatchLimit {
		batch = batch[:rerankBatchLimit]
	}

	result, err := s.generate(ctx,
		fmt.Sprintf(rerankPrompt, query, formatRerankResults(batch)), 600, 0)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	entries, err := parseRerankAnswer(result, len(batch))
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	return applyRerank(results, batch, entries), nil
}

// formatRerankResults renders the numbered result list for the prompt.
func formatRerankResults(results []domain.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		snippet := r.Chunk.Content
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit] + "..."
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n%s\n\n", i+1, r.Document.Path, r.Document.Title, snippet)
	}
	return b.String()
}

// parseRerankAnswer extracts and validates the JSON array from the
// model's answer. Indices are 1-based in the prompt.
func parseRerankAnswer(answer string, n int) ([]rerankEntry, error) {
	start := strings.Index(answer, "[")
	end := strings.LastIndex(answer, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in answer")
	}

	var entries []rerankEntry
	if err := json.Unmarshal([]byte(answer[start:end+1]), &entries); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}

	seen := make(map[int]bool, len(entries))
	valid := entries[:0]
	for _, e := range entries {
		if e.Index < 1 || e.Index > n || seen[e.Index] {
			continue
		}
		seen[e.Index] = true
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no usable entries in answer")
	}
	return valid, nil
}

// applyRerank rebuilds the result list in the model's order with the
// model's scores. Results the model did not mention keep their original
// relative order at the tail.
func applyRerank(results, batch []domain.SearchResult, entries []rerankEntry) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(results))
	mentioned := make(map[int]bool, len(entries))

	for _, e := range entries {
		r := batch[e.Index-1]
		r.Score = e.Score
		out = append(out, r)
		mentioned[e.Index] = true
	}
	for i := range batch {
		if !mentioned[i+1] {
			out = append(out, batch[i])
		}
	}
	// Results beyond the batch limit were never scored; keep them last.
	out = append(out, results[len(batch):]...)

	return out
}

const queryRewritePrompt = `Rewrite this search query to improve recall. Add synonyms and fix typos.
Return ONLY the rewritten query, nothing else.

Original: %s
Rewritten:`

// RewriteQuery expands or rewrites a search query for better recall.
func (s *LLMService) RewriteQuery(ctx context.Context, query string) (string, error) {
	result, err := s.generate(ctx, fmt.Sprintf(queryRewritePrompt, query), 100, 0.3)
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	return strings.TrimSpace(result), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
