// Package openai provides an LLM service adapter using OpenAI API.
package openai

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
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// rerankBatchLimit caps how many results are sent for reranking.
const rerankBatchLimit = 20

// snippetLimit caps the content excerpt per result in the rerank prompt.
const snippetLimit = 300

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using OpenAI API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
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
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// generate runs a single-turn chat completion.
func (s *LLMService) generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	reqBody := chatCompletionRequest{
		Model: s.model,
		Messages: []chatCompletionMsg{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
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

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
