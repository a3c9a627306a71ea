package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the search query to find documents"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Collections []string `json:"collections,omitempty" jsonschema:"restrict the search to these collection names"`
	Strategy    string   `json:"strategy,omitempty" jsonschema:"force a workflow: lexical, vector or hybrid (default: decided per query)"`
	MinScore    float64  `json:"min_score,omitempty" jsonschema:"drop results scoring below this threshold (0-100)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string              `json:"document_id"`
	Path       string              `json:"path"`
	Title      string              `json:"title"`
	Collection string              `json:"collection"`
	Score      float64             `json:"score"`
	Breakdown  ScoreBreakdownOutput `json:"breakdown"`
	Highlights []string            `json:"highlights,omitempty"`
	Content    string              `json:"content,omitempty"`
}

// ScoreBreakdownOutput explains how a result's score was produced.
type ScoreBreakdownOutput struct {
	Base            float64 `json:"base"`
	Importance      float64 `json:"importance"`
	CollectionBoost float64 `json:"collection_boost"`
	PathPenalty     float64 `json:"path_penalty"`
	TermBoost       float64 `json:"term_boost"`
	LexicalRank     int     `json:"lexical_rank,omitempty"`
	VectorRank      int     `json:"vector_rank,omitempty"`
	Fusion          float64 `json:"fusion,omitempty"`
	Reranked        bool    `json:"reranked,omitempty"`
}

// ListCollectionsOutput is the output schema for the list_collections tool.
type ListCollectionsOutput struct {
	Collections []CollectionOutput `json:"collections"`
	Count       int                `json:"count"`
}

// CollectionOutput represents a single collection.
type CollectionOutput struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Locator string   `json:"locator"`
	Boost   float64  `json:"boost"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search across all indexed collections",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List the configured document collections",
	}, s.handleListCollections)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{
		Limit:       limit,
		Collections: input.Collections,
		Strategy:    domain.SearchStrategy(input.Strategy),
		MinScore:    input.MinScore,
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID: results[i].Document.ID,
			Path:       results[i].Document.Path,
			Title:      results[i].Document.Title,
			Collection: results[i].CollectionName,
			Score:      results[i].Score,
			Breakdown:  breakdownOutput(results[i].Breakdown),
			Highlights: results[i].Highlights,
			Content:    results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleListCollections handles the list_collections tool invocation.
func (s *Server) handleListCollections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	if s.ports.Collections == nil {
		return nil, ListCollectionsOutput{}, fmt.Errorf("collection service not configured")
	}

	cols, err := s.ports.Collections.List(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, err
	}

	output := ListCollectionsOutput{
		Collections: make([]CollectionOutput, len(cols)),
		Count:       len(cols),
	}
	for i := range cols {
		output.Collections[i] = CollectionOutput{
			Name:    cols[i].Name,
			Kind:    cols[i].Kind,
			Locator: cols[i].Locator,
			Boost:   cols[i].EffectiveBoost(),
			Include: cols[i].Include,
			Exclude: cols[i].Exclude,
		}
	}

	return nil, output, nil
}

func breakdownOutput(b domain.ScoreBreakdown) ScoreBreakdownOutput {
	return ScoreBreakdownOutput{
		Base:            b.Base,
		Importance:      b.Importance,
		CollectionBoost: b.CollectionBoost,
		PathPenalty:     b.PathPenalty,
		TermBoost:       b.TermBoost,
		LexicalRank:     b.LexicalRank,
		VectorRank:      b.VectorRank,
		Fusion:          b.Fusion,
		Reranked:        b.Reranked,
	}
}
