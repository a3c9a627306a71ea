// Package anthropic provides an LLM service adapter using Anthropic API.
package anthropic

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
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// AnthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// rerankBatchLimit caps how many results are sent for reranking.
const rerankBatchLimit = 20

// snippetLimit caps the content excerpt per result in the rerank prompt.
const snippetLimit = 300

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using Anthropic API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// generate runs a single-turn message exchange.
func (s *LLMService) generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	// Anthropic requires max_tokens to be set
	if maxTokens == 0 {
		maxTokens = 1024
	}

	reqBody := messagesRequest{
		Model: s.model,
		Messages: []messagesMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTokens,
	}
	if temperature > 0 {
		reqBody.Temperature = temperature
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if msgResp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s", msgResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(msgResp.Content) == 0 {
		return "", fmt.Errorf("anthropic: no response content returned")
	}

	// Concatenate all text content blocks
	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	return result.String(), nil
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

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
